package shop

// Shop API documents. Union fields select __typename and the ErrorResult
// interface so decodeResult can tell the members apart.
const (
	errorResultFields = `
    ... on ErrorResult { errorCode message }
    ... on PasswordValidationError { validationErrorMessage }`

	loginMutation = `
mutation Login($username: String!, $password: String!, $rememberMe: Boolean) {
  login(username: $username, password: $password, rememberMe: $rememberMe) {
    __typename
    ... on CurrentUser { id identifier }` + errorResultFields + `
  }
}`

	registerMutation = `
mutation RegisterCustomerAccount($input: RegisterCustomerInput!) {
  registerCustomerAccount(input: $input) {
    __typename
    ... on Success { success }` + errorResultFields + `
  }
}`

	verifyMutation = `
mutation VerifyCustomerAccount($token: String!, $password: String) {
  verifyCustomerAccount(token: $token, password: $password) {
    __typename
    ... on CurrentUser { id identifier }` + errorResultFields + `
  }
}`

	logoutMutation = `
mutation Logout {
  logout { success }
}`

	requestPasswordResetMutation = `
mutation RequestPasswordReset($emailAddress: String!) {
  requestPasswordReset(emailAddress: $emailAddress) {
    __typename
    ... on Success { success }` + errorResultFields + `
  }
}`

	resetPasswordMutation = `
mutation ResetPassword($token: String!, $password: String!) {
  resetPassword(token: $token, password: $password) {
    __typename
    ... on CurrentUser { id identifier }` + errorResultFields + `
  }
}`

	customerFields = `id title firstName lastName emailAddress phoneNumber`

	activeCustomerQuery = `
query GetActiveCustomer {
  activeCustomer {
    ` + customerFields + `
    addresses {
      id fullName streetLine1 streetLine2 city province postalCode
      country { code name }
      phoneNumber defaultShippingAddress defaultBillingAddress
    }
    orders(options: { take: 10, sort: { createdAt: DESC } }) {
      items { id code state total createdAt }
      totalItems
    }
  }
}`

	updateCustomerMutation = `
mutation UpdateCustomer($input: UpdateCustomerInput!) {
  updateCustomer(input: $input) { ` + customerFields + ` }
}`

	orderFields = `
    id code state totalQuantity subTotal shipping total
    lines {
      id quantity unitPrice linePrice
      productVariant {
        id name sku price
        product { id name slug featuredAsset { id preview } }
      }
    }`

	activeOrderQuery = `
query GetActiveOrder {
  activeOrder {` + orderFields + `
  }
}`

	orderErrorFields = `
    ... on ErrorResult { errorCode message }
    ... on InsufficientStockError { quantityAvailable }`

	addItemToOrderMutation = `
mutation AddToCart($productVariantId: ID!, $quantity: Int!) {
  addItemToOrder(productVariantId: $productVariantId, quantity: $quantity) {
    __typename
    ... on Order {` + orderFields + `
    }` + orderErrorFields + `
  }
}`

	adjustOrderLineMutation = `
mutation UpdateCartItem($lineId: ID!, $quantity: Int!) {
  adjustOrderLine(orderLineId: $lineId, quantity: $quantity) {
    __typename
    ... on Order {` + orderFields + `
    }` + orderErrorFields + `
  }
}`

	removeOrderLineMutation = `
mutation RemoveFromCart($lineId: ID!) {
  removeOrderLine(orderLineId: $lineId) {
    __typename
    ... on Order {` + orderFields + `
    }` + orderErrorFields + `
  }
}`

	productFields = `
    id name slug description
    featuredAsset { id preview source }
    variants { id name sku price priceWithTax stockLevel }
    facetValues { id name code facet { id name } }`

	productsQuery = `
query GetProducts($options: ProductListOptions) {
  products(options: $options) {
    items {` + productFields + `
    }
    totalItems
  }
}`

	productBySlugQuery = `
query GetProductBySlug($slug: String!) {
  product(slug: $slug) {` + productFields + `
  }
}`

	collectionsQuery = `
query GetCollections($options: CollectionListOptions) {
  collections(options: $options) {
    items {
      id name slug description
      featuredAsset { id preview }
      parent { id name }
      children { id name slug }
    }
    totalItems
  }
}`

	collectionProductsQuery = `
query GetProductsByCollection($slug: String!, $options: ProductVariantListOptions) {
  collection(slug: $slug) {
    id name slug description
    productVariants(options: $options) {
      items {
        id name price priceWithTax
        product { id name slug featuredAsset { id preview } }
      }
      totalItems
    }
  }
}`

	searchQuery = `
query SearchProducts($input: SearchInput!) {
  search(input: $input) {
    items {
      productId productName slug description
      priceWithTax {
        ... on PriceRange { min max }
        ... on SinglePrice { value }
      }
      productAsset { id preview }
      productVariantId productVariantName sku facetValueIds
    }
    totalItems
    facetValues {
      count
      facetValue { id name facet { id name } }
    }
  }
}`

	facetsQuery = `
query GetFacets {
  facets {
    items {
      id name code
      values { id name code }
    }
  }
}`
)
