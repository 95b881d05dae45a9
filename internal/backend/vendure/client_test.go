package vendure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniclima/storefront/internal/backend"
	"github.com/uniclima/storefront/pkg/graphql"
	"github.com/uniclima/storefront/pkg/httpclient"
)

type call struct {
	op   string
	vars map[string]any
	auth string
}

// fakeAdmin answers Admin API operations by operation name.
type fakeAdmin struct {
	t        *testing.T
	mu       sync.Mutex
	calls    []call
	handlers map[string]func(vars map[string]any) string
	noToken  bool
}

func newFakeAdmin(t *testing.T) *fakeAdmin {
	f := &fakeAdmin{t: t, handlers: map[string]func(map[string]any) string{}}
	f.handle("Login", `{"login":{"__typename":"CurrentUser","id":"1","identifier":"superadmin"}}`)
	f.handle("Logout", `{"logout":{"success":true}}`)
	return f
}

func (f *fakeAdmin) handle(op, data string) {
	f.handlers[op] = func(map[string]any) string { return data }
}

func (f *fakeAdmin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphql.Request
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

	f.mu.Lock()
	f.calls = append(f.calls, call{op: req.OperationName, vars: req.Variables, auth: r.Header.Get("Authorization")})
	h, ok := f.handlers[req.OperationName]
	f.mu.Unlock()

	if req.OperationName == "Login" && !f.noToken {
		w.Header().Set(graphql.DefaultAuthTokenHeader, "admin-token")
	}
	if !ok {
		_, _ = fmt.Fprintf(w, `{"errors":[{"message":"no handler for %s"}]}`, req.OperationName)
		return
	}
	_, _ = fmt.Fprintf(w, `{"data":%s}`, h(req.Variables))
}

func (f *fakeAdmin) last(op string) call {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].op == op {
			return f.calls[i]
		}
	}
	f.t.Fatalf("operation %s was not called", op)
	return call{}
}

func (f *fakeAdmin) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func testDoer() httpclient.Doer {
	return httpclient.New(httpclient.Config{Timeout: 5 * time.Second, MaxConnsPerHost: 4})
}

func open(t *testing.T, f *fakeAdmin) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := Open(context.Background(), testDoer(), Config{
		Endpoint:     srv.URL + "/admin-api",
		LanguageCode: "es",
		Username:     "superadmin",
		Password:     "superadmin",
	}, nil)
	require.NoError(t, err)
	return c, srv
}

func TestOpen_LogsInAndAuthenticatesLaterCalls(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("ActiveChannel", `{"activeChannel":{"id":"1","code":"__default_channel__","defaultTaxZone":{"id":"7"},"defaultShippingZone":null}}`)
	c, _ := open(t, f)

	login := f.last("Login")
	assert.Equal(t, "superadmin", login.vars["username"])
	assert.Empty(t, login.auth)

	ch, err := c.DefaultChannel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", ch.ID)
	assert.Equal(t, "7", ch.DefaultTaxZoneID)
	assert.Empty(t, ch.DefaultShippingZoneID)
	assert.Equal(t, "Bearer admin-token", f.last("ActiveChannel").auth)
}

func TestOpen_InvalidCredentials(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("Login", `{"login":{"__typename":"InvalidCredentialsError","errorCode":"INVALID_CREDENTIALS_ERROR","message":"The provided credentials are invalid"}}`)
	f.noToken = true
	srv := httptest.NewServer(f)
	defer srv.Close()

	_, err := Open(context.Background(), testDoer(), Config{Endpoint: srv.URL, Username: "x", Password: "y"}, nil)
	require.Error(t, err)

	var resErr *backend.ResultError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "INVALID_CREDENTIALS_ERROR", resErr.Code)
}

func TestOpen_MissingTokenHeader(t *testing.T) {
	f := newFakeAdmin(t)
	f.noToken = true
	srv := httptest.NewServer(f)
	defer srv.Close()

	_, err := Open(context.Background(), testDoer(), Config{Endpoint: srv.URL, Username: "x", Password: "y"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session token")
}

func TestClose_LogsOutOnce(t *testing.T) {
	f := newFakeAdmin(t)
	c, _ := open(t, f)

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))

	assert.Equal(t, 1, f.count("Logout"))
	assert.Equal(t, "Bearer admin-token", f.last("Logout").auth)
}

func TestLanguageCodeQueryParameter(t *testing.T) {
	var gotLang string
	f := newFakeAdmin(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("languageCode")
		f.ServeHTTP(w, r)
	}))
	defer srv.Close()

	_, err := Open(context.Background(), testDoer(), Config{Endpoint: srv.URL, LanguageCode: "es", ChannelToken: "uniclima"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "es", gotLang)
}

func TestUpdateChannelZones_ErrorResult(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("UpdateChannel", `{"updateChannel":{"__typename":"LanguageNotAvailableError","errorCode":"LANGUAGE_NOT_AVAILABLE_ERROR","message":"Language not available"}}`)
	c, _ := open(t, f)

	_, err := c.UpdateChannelZones(context.Background(), "1", "7", "7")

	var resErr *backend.ResultError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "LANGUAGE_NOT_AVAILABLE_ERROR", resErr.Code)

	input := f.last("UpdateChannel").vars["input"].(map[string]any)
	assert.Equal(t, "7", input["defaultTaxZoneId"])
	assert.Equal(t, "7", input["defaultShippingZoneId"])
}

func TestUpdateChannelZones_Success(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("UpdateChannel", `{"updateChannel":{"__typename":"Channel","id":"1","code":"default","defaultTaxZone":{"id":"7"},"defaultShippingZone":{"id":"7"}}}`)
	c, _ := open(t, f)

	ch, err := c.UpdateChannelZones(context.Background(), "1", "7", "7")
	require.NoError(t, err)
	assert.Equal(t, "7", ch.DefaultShippingZoneID)
}

func TestListZonesAndCreate(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("Zones", `{"zones":{"items":[{"id":"3","name":"Europe","members":[{"id":"10"},{"id":"11"}]}],"totalItems":1}}`)
	f.handle("CreateCountry", `{"createCountry":{"id":"50","code":"ES","name":"España"}}`)
	f.handle("CreateZone", `{"createZone":{"id":"9","name":"Spain","members":[{"id":"50"}]}}`)
	c, _ := open(t, f)
	ctx := context.Background()

	zones, err := c.ListZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, []string{"10", "11"}, zones[0].MemberIDs)

	country, err := c.CreateCountry(ctx, backend.CreateCountryInput{
		Code:    "ES",
		Enabled: true,
		Translations: []backend.Translation{
			{LanguageCode: backend.LanguageES, Name: "España"},
			{LanguageCode: backend.LanguageEN, Name: "Spain"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "50", country.ID)
	input := f.last("CreateCountry").vars["input"].(map[string]any)
	assert.Len(t, input["translations"], 2)

	zone, err := c.CreateZone(ctx, backend.CreateZoneInput{Name: "Spain", MemberIDs: []string{country.ID}})
	require.NoError(t, err)
	assert.Equal(t, "9", zone.ID)
	assert.Equal(t, []any{"50"}, f.last("CreateZone").vars["input"].(map[string]any)["memberIds"])
}

func TestTaxCategoriesAndRate(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("TaxCategories", `{"taxCategories":{"items":[{"id":"1","name":"Standard","isDefault":false},{"id":"2","name":"IVA Standard","isDefault":true}],"totalItems":2}}`)
	f.handle("CreateTaxCategory", `{"createTaxCategory":{"id":"3","name":"IVA Standard","isDefault":true}}`)
	f.handle("CreateTaxRate", `{"createTaxRate":{"id":"4","name":"IVA 21%","value":21}}`)
	c, _ := open(t, f)
	ctx := context.Background()

	cats, err := c.ListTaxCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.True(t, cats[1].IsDefault)

	tc, err := c.CreateTaxCategory(ctx, backend.CreateTaxCategoryInput{Name: "IVA Standard", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, "3", tc.ID)

	rate, err := c.CreateTaxRate(ctx, backend.CreateTaxRateInput{Name: "IVA 21%", Enabled: true, Value: 21, CategoryID: "3", ZoneID: "9"})
	require.NoError(t, err)
	assert.Equal(t, 21.0, rate.Value)
	input := f.last("CreateTaxRate").vars["input"].(map[string]any)
	assert.Equal(t, "9", input["zoneId"])
	assert.Equal(t, 21.0, input["value"])
}

func TestListFacetValues_Pages(t *testing.T) {
	f := newFakeAdmin(t)
	f.handlers["FacetValues"] = func(vars map[string]any) string {
		opts := vars["options"].(map[string]any)
		skip := 0
		if s, ok := opts["skip"].(float64); ok {
			skip = int(s)
		}
		n := 100
		if skip >= 100 {
			n = 50
		}
		items := make([]string, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, fmt.Sprintf(`{"id":"%d","code":"v%d","name":"V%d","facet":{"id":"1","code":"brand"}}`, skip+i, skip+i, skip+i))
		}
		return fmt.Sprintf(`{"facetValues":{"items":[%s],"totalItems":150}}`, strings.Join(items, ","))
	}
	c, _ := open(t, f)

	values, err := c.ListFacetValues(context.Background())
	require.NoError(t, err)
	assert.Len(t, values, 150)
	assert.Equal(t, 2, f.count("FacetValues"))
	assert.Equal(t, "brand", values[149].FacetCode)
}

func TestFacetsAndFacetValues(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("Facets", `{"facets":{"items":[{"id":"1","code":"brand","name":"Marca"}],"totalItems":1}}`)
	f.handle("CreateFacet", `{"createFacet":{"id":"2","code":"condition","name":"Estado"}}`)
	f.handle("CreateFacetValues", `{"createFacetValues":[{"id":"20","code":"nuevo","name":"Nuevo","facet":{"id":"2","code":"condition"}}]}`)
	c, _ := open(t, f)
	ctx := context.Background()

	facets, err := c.ListFacets(ctx, backend.ListOptions{Take: 100})
	require.NoError(t, err)
	require.Len(t, facets, 1)
	assert.Equal(t, float64(100), f.last("Facets").vars["options"].(map[string]any)["take"])

	facet, err := c.CreateFacet(ctx, backend.CreateFacetInput{Code: "condition", Translations: []backend.Translation{{LanguageCode: backend.LanguageES, Name: "Estado"}}})
	require.NoError(t, err)
	assert.Equal(t, "2", facet.ID)

	values, err := c.CreateFacetValues(ctx, []backend.CreateFacetValueInput{{FacetID: "2", Code: "nuevo"}})
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "2", values[0].FacetID)
}

func TestCollections(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("Collections", `{"collections":{"items":[{"id":"1","name":"Todos","slug":"todos-los-productos","parent":{"id":"0"}}],"totalItems":1}}`)
	f.handle("CreateCollection", `{"createCollection":{"id":"2","name":"Bombas","slug":"bombas","parent":{"id":"1"}}}`)
	c, _ := open(t, f)
	ctx := context.Background()

	cols, err := c.ListCollections(ctx, backend.ListOptions{Take: 100})
	require.NoError(t, err)
	assert.Equal(t, "todos-los-productos", cols[0].Slug)

	col, err := c.CreateCollection(ctx, backend.CreateCollectionInput{
		ParentID: "1",
		Translations: []backend.Translation{
			{LanguageCode: backend.LanguageES, Name: "Bombas", Slug: "bombas", Description: "Piezas de repuesto: Bombas"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", col.ParentID)

	input := f.last("CreateCollection").vars["input"].(map[string]any)
	assert.Equal(t, "1", input["parentId"])
	assert.Equal(t, []any{}, input["filters"])
	tr := input["translations"].([]any)[0].(map[string]any)
	assert.Equal(t, "bombas", tr["slug"])
}

func TestStockLocations(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("StockLocations", `{"stockLocations":{"items":[],"totalItems":0}}`)
	f.handle("CreateStockLocation", `{"createStockLocation":{"id":"1","name":"Almacén Principal","description":"Almacén principal de Uniclima"}}`)
	c, _ := open(t, f)
	ctx := context.Background()

	locs, err := c.ListStockLocations(ctx)
	require.NoError(t, err)
	assert.Empty(t, locs)

	loc, err := c.CreateStockLocation(ctx, backend.CreateStockLocationInput{Name: "Almacén Principal", Description: "Almacén principal de Uniclima"})
	require.NoError(t, err)
	assert.Equal(t, "1", loc.ID)
}

func TestFindProductBySlug(t *testing.T) {
	f := newFakeAdmin(t)
	f.handlers["ProductBySlug"] = func(vars map[string]any) string {
		filter := vars["options"].(map[string]any)["filter"].(map[string]any)
		if filter["slug"].(map[string]any)["eq"] == "valvula-de-gas" {
			return `{"products":{"items":[{"id":"5","name":"Válvula de Gas","slug":"valvula-de-gas","enabled":true}],"totalItems":1}}`
		}
		return `{"products":{"items":[],"totalItems":0}}`
	}
	c, _ := open(t, f)
	ctx := context.Background()

	p, err := c.FindProductBySlug(ctx, "valvula-de-gas")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "5", p.ID)

	p, err = c.FindProductBySlug(ctx, "bomba")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCreateProductAndVariant(t *testing.T) {
	f := newFakeAdmin(t)
	f.handle("CreateProduct", `{"createProduct":{"id":"5","name":"Válvula de Gas","slug":"valvula-de-gas","enabled":true}}`)
	f.handle("CreateProductVariants", `{"createProductVariants":[{"id":"8","sku":"ABC123","price":4599,"product":{"id":"5"},"stockLevels":[{"stockLocationId":"1","stockOnHand":10}]}]}`)
	c, _ := open(t, f)
	ctx := context.Background()

	p, err := c.CreateProduct(ctx, backend.CreateProductInput{
		Enabled:       true,
		Translations:  []backend.Translation{{LanguageCode: backend.LanguageES, Name: "Válvula de Gas", Slug: "valvula-de-gas"}},
		FacetValueIDs: []string{"20", "21"},
	})
	require.NoError(t, err)
	assert.Equal(t, "5", p.ID)
	assert.Equal(t, []any{"20", "21"}, f.last("CreateProduct").vars["input"].(map[string]any)["facetValueIds"])

	v, err := c.CreateProductVariant(ctx, backend.CreateProductVariantInput{
		ProductID:      p.ID,
		SKU:            "ABC123",
		Price:          4599,
		TaxCategoryID:  "2",
		TrackInventory: backend.FlagTrue,
		StockLevels:    []backend.StockLevelInput{{StockLocationID: "1", StockOnHand: 10}},
		Translations:   []backend.Translation{{LanguageCode: backend.LanguageES, Name: "Válvula de Gas"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4599), v.Price)
	assert.Equal(t, 10, v.StockOnHand)
	assert.Equal(t, "5", v.ProductID)

	input := f.last("CreateProductVariants").vars["input"].([]any)[0].(map[string]any)
	assert.Equal(t, "TRUE", input["trackInventory"])
	assert.Equal(t, float64(4599), input["price"])
	assert.Equal(t, "2", input["taxCategoryId"])
	level := input["stockLevels"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(10), level["stockOnHand"])
}

func TestGraphQLErrorPropagates(t *testing.T) {
	f := newFakeAdmin(t)
	c, _ := open(t, f)

	_, err := c.ListStockLocations(context.Background())
	require.Error(t, err)

	var gqlErr *graphql.Error
	assert.True(t, errors.As(err, &gqlErr))
	assert.Contains(t, err.Error(), "list stock locations")
}
