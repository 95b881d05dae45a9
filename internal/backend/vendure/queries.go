package vendure

// Admin API documents. Each operation is named so spans and metrics can be
// attributed to it.
const (
	loginMutation = `
mutation Login($username: String!, $password: String!) {
  login(username: $username, password: $password) {
    __typename
    ... on CurrentUser { id identifier }
    ... on ErrorResult { errorCode message }
  }
}`

	logoutMutation = `
mutation Logout {
  logout { success }
}`

	channelFields = `id code defaultTaxZone { id } defaultShippingZone { id }`

	activeChannelQuery = `
query ActiveChannel {
  activeChannel { ` + channelFields + ` }
}`

	updateChannelMutation = `
mutation UpdateChannel($input: UpdateChannelInput!) {
  updateChannel(input: $input) {
    __typename
    ... on Channel { ` + channelFields + ` }
    ... on ErrorResult { errorCode message }
  }
}`

	zonesQuery = `
query Zones($options: ZoneListOptions) {
  zones(options: $options) {
    items { id name members { id } }
    totalItems
  }
}`

	createCountryMutation = `
mutation CreateCountry($input: CreateCountryInput!) {
  createCountry(input: $input) { id code name }
}`

	createZoneMutation = `
mutation CreateZone($input: CreateZoneInput!) {
  createZone(input: $input) { id name members { id } }
}`

	taxCategoriesQuery = `
query TaxCategories($options: TaxCategoryListOptions) {
  taxCategories(options: $options) {
    items { id name isDefault }
    totalItems
  }
}`

	createTaxCategoryMutation = `
mutation CreateTaxCategory($input: CreateTaxCategoryInput!) {
  createTaxCategory(input: $input) { id name isDefault }
}`

	createTaxRateMutation = `
mutation CreateTaxRate($input: CreateTaxRateInput!) {
  createTaxRate(input: $input) { id name value }
}`

	facetsQuery = `
query Facets($options: FacetListOptions) {
  facets(options: $options) {
    items { id code name }
    totalItems
  }
}`

	createFacetMutation = `
mutation CreateFacet($input: CreateFacetInput!) {
  createFacet(input: $input) { id code name }
}`

	facetValuesQuery = `
query FacetValues($options: FacetValueListOptions) {
  facetValues(options: $options) {
    items { id code name facet { id code } }
    totalItems
  }
}`

	createFacetValuesMutation = `
mutation CreateFacetValues($input: [CreateFacetValueInput!]!) {
  createFacetValues(input: $input) { id code name facet { id code } }
}`

	collectionsQuery = `
query Collections($options: CollectionListOptions) {
  collections(options: $options) {
    items { id name slug parent { id } }
    totalItems
  }
}`

	createCollectionMutation = `
mutation CreateCollection($input: CreateCollectionInput!) {
  createCollection(input: $input) { id name slug parent { id } }
}`

	stockLocationsQuery = `
query StockLocations($options: StockLocationListOptions) {
  stockLocations(options: $options) {
    items { id name description }
    totalItems
  }
}`

	createStockLocationMutation = `
mutation CreateStockLocation($input: CreateStockLocationInput!) {
  createStockLocation(input: $input) { id name description }
}`

	productBySlugQuery = `
query ProductBySlug($options: ProductListOptions) {
  products(options: $options) {
    items { id name slug enabled }
    totalItems
  }
}`

	createProductMutation = `
mutation CreateProduct($input: CreateProductInput!) {
  createProduct(input: $input) { id name slug enabled }
}`

	createProductVariantsMutation = `
mutation CreateProductVariants($input: [CreateProductVariantInput!]!) {
  createProductVariants(input: $input) {
    id sku price
    product { id }
    stockLevels { stockLocationId stockOnHand }
  }
}`
)
