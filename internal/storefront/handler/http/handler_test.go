package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/uniclima/storefront/internal/quote"
	"github.com/uniclima/storefront/internal/shop"
	"github.com/uniclima/storefront/pkg/graphql"
	"github.com/uniclima/storefront/pkg/health"
	"github.com/uniclima/storefront/pkg/middleware"
)

// ============================================================================
// Mocks
// ============================================================================

type mockQuoteService struct {
	mock.Mock
}

func (m *mockQuoteService) Submit(ctx context.Context, in quote.Input) (*quote.Quote, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *mockQuoteService) Get(ctx context.Context, id string) (*quote.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

type mockAccount struct {
	mock.Mock
}

func (m *mockAccount) Login(ctx context.Context, email, password string, rememberMe bool) (shop.Result[shop.CurrentUser], error) {
	args := m.Called(ctx, email, password, rememberMe)
	return args.Get(0).(shop.Result[shop.CurrentUser]), args.Error(1)
}

func (m *mockAccount) Register(ctx context.Context, in shop.RegisterInput) (shop.Result[shop.Success], error) {
	args := m.Called(ctx, in)
	return args.Get(0).(shop.Result[shop.Success]), args.Error(1)
}

func (m *mockAccount) Verify(ctx context.Context, token, password string) (shop.Result[shop.CurrentUser], error) {
	args := m.Called(ctx, token, password)
	return args.Get(0).(shop.Result[shop.CurrentUser]), args.Error(1)
}

func (m *mockAccount) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockAccount) RequestPasswordReset(ctx context.Context, email string) (shop.Result[shop.Success], error) {
	args := m.Called(ctx, email)
	return args.Get(0).(shop.Result[shop.Success]), args.Error(1)
}

func (m *mockAccount) ResetPassword(ctx context.Context, token, password string) (shop.Result[shop.CurrentUser], error) {
	args := m.Called(ctx, token, password)
	return args.Get(0).(shop.Result[shop.CurrentUser]), args.Error(1)
}

func (m *mockAccount) ActiveCustomer(ctx context.Context) (*shop.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Customer), args.Error(1)
}

func (m *mockAccount) UpdateCustomer(ctx context.Context, in shop.UpdateCustomerInput) (*shop.Customer, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Customer), args.Error(1)
}

func (m *mockAccount) ActiveOrder(ctx context.Context) (*shop.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Order), args.Error(1)
}

func (m *mockAccount) AddItem(ctx context.Context, variantID string, quantity int) (shop.Result[shop.Order], error) {
	args := m.Called(ctx, variantID, quantity)
	return args.Get(0).(shop.Result[shop.Order]), args.Error(1)
}

func (m *mockAccount) AdjustLine(ctx context.Context, lineID string, quantity int) (shop.Result[shop.Order], error) {
	args := m.Called(ctx, lineID, quantity)
	return args.Get(0).(shop.Result[shop.Order]), args.Error(1)
}

func (m *mockAccount) RemoveLine(ctx context.Context, lineID string) (shop.Result[shop.Order], error) {
	args := m.Called(ctx, lineID)
	return args.Get(0).(shop.Result[shop.Order]), args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Products(ctx context.Context, opts shop.ListOptions) (shop.List[shop.Product], error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(shop.List[shop.Product]), args.Error(1)
}

func (m *mockCatalog) ProductBySlug(ctx context.Context, slug string) (*shop.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Product), args.Error(1)
}

func (m *mockCatalog) Collections(ctx context.Context, opts shop.ListOptions) (shop.List[shop.Collection], error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(shop.List[shop.Collection]), args.Error(1)
}

func (m *mockCatalog) CollectionProducts(ctx context.Context, slug string, opts shop.ListOptions) (*shop.CollectionProducts, error) {
	args := m.Called(ctx, slug, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.CollectionProducts), args.Error(1)
}

func (m *mockCatalog) Search(ctx context.Context, in shop.SearchInput) (*shop.SearchResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.SearchResult), args.Error(1)
}

func (m *mockCatalog) Facets(ctx context.Context) ([]shop.Facet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shop.Facet), args.Error(1)
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	quotes  *mockQuoteService
	account *mockAccount
	catalog *mockCatalog
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		quotes:  new(mockQuoteService),
		account: new(mockAccount),
		catalog: new(mockCatalog),
	}
	logger := testLogger()
	f.router = NewRouter(
		RouterConfig{CORS: middleware.DefaultCORSConfig(), CatalogMaxAge: 60},
		NewQuoteHandler(f.quotes, logger),
		NewShopHandler(f.account, f.catalog, logger),
		health.NewHandler(),
		logger,
	)
	return f
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

// withToken matches a context whose shop session carries token.
func withToken(token string) any {
	return mock.MatchedBy(func(ctx context.Context) bool {
		return graphql.SessionFromContext(ctx).Token() == token
	})
}

func intPtr(v int) *int { return &v }
