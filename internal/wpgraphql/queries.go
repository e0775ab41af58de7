package wpgraphql

// cartFields is the selection set shared by every cart query and mutation.
// All mutations return the full cart so the caller can wholesale-replace
// its snapshot with server-computed totals.
const cartFields = `
contents {
  nodes {
    key
    quantity
    subtotal
    subtotalTax
    total
    tax
    product {
      node {
        databaseId
        name
        sku
        price
        image { sourceUrl }
      }
    }
    variation {
      node { databaseId }
    }
  }
}
appliedCoupons { code discountAmount }
chosenShippingMethods
availableShippingMethods {
  rates { id label cost }
}
subtotal
subtotalTax
shippingTotal
discountTotal
totalTax
total
isEmpty`

const queryGetCart = `query GetCart {
  cart {` + cartFields + `
  }
}`

const mutationAddToCart = `mutation AddToCart($input: AddToCartInput!) {
  addToCart(input: $input) {
    cart {` + cartFields + `
    }
  }
}`

const mutationRemoveItems = `mutation RemoveItemsFromCart($input: RemoveItemsFromCartInput!) {
  removeItemsFromCart(input: $input) {
    cart {` + cartFields + `
    }
  }
}`

const mutationUpdateQuantities = `mutation UpdateItemQuantities($input: UpdateItemQuantitiesInput!) {
  updateItemQuantities(input: $input) {
    cart {` + cartFields + `
    }
  }
}`

const mutationApplyCoupon = `mutation ApplyCoupon($input: ApplyCouponInput!) {
  applyCoupon(input: $input) {
    cart {` + cartFields + `
    }
  }
}`

const mutationRemoveCoupons = `mutation RemoveCoupons($input: RemoveCouponsInput!) {
  removeCoupons(input: $input) {
    cart {` + cartFields + `
    }
  }
}`

const mutationUpdateShippingMethod = `mutation UpdateShippingMethod($input: UpdateShippingMethodInput!) {
  updateShippingMethod(input: $input) {
    cart {` + cartFields + `
    }
  }
}`

const mutationEmptyCart = `mutation EmptyCart {
  emptyCart(input: {}) {
    cart {` + cartFields + `
    }
  }
}`

const mutationCheckout = `mutation Checkout($input: CheckoutInput!) {
  checkout(input: $input) {
    result
    redirect
    order {
      databaseId
      orderKey
      status
      total
    }
  }
}`

const mutationLogin = `mutation Login($input: LoginInput!) {
  login(input: $input) {
    authToken
    customer { sessionToken }
  }
}`

// mutationCreateOrder runs under admin Basic auth, not a buyer session.
// The order is created PENDING/unpaid so WooCommerce does not fire
// customer emails before the status patch confirms payment.
const mutationCreateOrder = `mutation CreateOrder($input: CreateOrderInput!) {
  createOrder(input: $input) {
    order {
      databaseId
      orderKey
      status
      total
    }
  }
}`

// queryScriptData feeds the cache warmer: product and category lists in
// one round trip.
const queryScriptData = `query ScriptData($first: Int!) {
  products(first: $first, where: { status: "publish" }) {
    nodes {
      databaseId
      slug
      name
      ... on SimpleProduct { price }
      ... on VariableProduct { price }
      shortDescription
      image { sourceUrl }
      modified
    }
  }
  productCategories(first: $first) {
    nodes {
      slug
      name
      count
    }
  }
}`
