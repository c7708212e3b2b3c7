package webull

const (
	// Trading
	EndpointPlaceOrder  = "/trade/place_order"
	EndpointCancelOrder = "/trade/cancel_order"
	EndpointOpenOrders  = "/trade/open_orders"
	EndpointOrders      = "/trade/orders"

	// Account
	EndpointAccounts  = "/account/list"
	EndpointBalance   = "/account/balance"
	EndpointPositions = "/account/positions"

	// Market data
	EndpointQuote       = "/market/quote"
	EndpointSnapshot    = "/market/snapshot"
	EndpointInstruments = "/instrument/list"
)
