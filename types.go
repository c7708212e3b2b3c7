package webull

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// Enums
// ---------------------------------------------------------------------------

// Side represents a buy or sell side.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderType represents the execution strategy for an order.
type OrderType string

const (
	Limit         OrderType = "LIMIT"
	Market        OrderType = "MARKET"
	StopLoss      OrderType = "STOP_LOSS"
	StopLossLimit OrderType = "STOP_LOSS_LIMIT"
)

// TimeInForce represents how long an order remains working.
type TimeInForce string

const (
	Day TimeInForce = "DAY"
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
)

// Category identifies an instrument universe for market-data lookups.
type Category string

const (
	USStock  Category = "US_STOCK"
	USETF    Category = "US_ETF"
	USOption Category = "US_OPTION"
	HKStock  Category = "HK_STOCK"
)

// OrderStatus values returned by the order endpoints.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusWorking   = "WORKING"
	OrderStatusFilled    = "FILLED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusFailed    = "FAILED"
)

// ---------------------------------------------------------------------------
// Trading types
// ---------------------------------------------------------------------------

// PlaceOrderArgs holds the parameters needed to place an order. Quantity and
// prices are decimals end to end; they are rendered as strings on the wire
// so the gateway never sees float drift.
type PlaceOrderArgs struct {
	AccountID     string
	ClientOrderID string // generated when empty
	InstrumentID  string
	Side          Side
	OrderType     OrderType
	TimeInForce   TimeInForce
	Quantity      decimal.Decimal
	LimitPrice    decimal.Decimal // required for LIMIT and STOP_LOSS_LIMIT
	StopPrice     decimal.Decimal // required for STOP_LOSS and STOP_LOSS_LIMIT
	ExtendedHours bool
}

// placeOrderRequest is the wire form of PlaceOrderArgs.
type placeOrderRequest struct {
	AccountID     string      `json:"account_id"`
	ClientOrderID string      `json:"client_order_id"`
	InstrumentID  string      `json:"instrument_id"`
	Side          Side        `json:"side"`
	OrderType     OrderType   `json:"order_type"`
	TimeInForce   TimeInForce `json:"time_in_force"`
	Quantity      string      `json:"qty"`
	LimitPrice    string      `json:"limit_price,omitempty"`
	StopPrice     string      `json:"stop_price,omitempty"`
	ExtendedHours bool        `json:"extended_hours_trading"`
}

// cancelOrderRequest is the wire form of a cancel call.
type cancelOrderRequest struct {
	AccountID     string `json:"account_id"`
	ClientOrderID string `json:"client_order_id"`
}

// PlaceOrderAck is the gateway's acknowledgement of a placed order.
type PlaceOrderAck struct {
	OrderID       string `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
}

// Order represents an order as reported by the order endpoints.
type Order struct {
	OrderID        string          `json:"order_id"`
	ClientOrderID  string          `json:"client_order_id"`
	AccountID      string          `json:"account_id"`
	InstrumentID   string          `json:"instrument_id"`
	Symbol         string          `json:"symbol"`
	Side           Side            `json:"side"`
	OrderType      OrderType       `json:"order_type"`
	TimeInForce    TimeInForce     `json:"time_in_force"`
	Status         string          `json:"status"`
	Quantity       decimal.Decimal `json:"qty"`
	FilledQuantity decimal.Decimal `json:"filled_qty"`
	LimitPrice     decimal.Decimal `json:"limit_price"`
	AvgFillPrice   decimal.Decimal `json:"avg_fill_price"`
	PlacedAt       string          `json:"placed_time"`
	UpdatedAt      string          `json:"update_time"`
}

// OrderParams filters order-history queries.
type OrderParams struct {
	AccountID string
	Status    string
	StartDate string // inclusive, YYYY-MM-DD
	EndDate   string // inclusive, YYYY-MM-DD
	PageSize  int
}

// ---------------------------------------------------------------------------
// Account types
// ---------------------------------------------------------------------------

// Account identifies one brokerage account reachable with the app key.
type Account struct {
	AccountID   string `json:"account_id"`
	AccountType string `json:"account_type"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// Balance holds an account's asset summary.
type Balance struct {
	AccountID     string          `json:"account_id"`
	Currency      string          `json:"currency"`
	TotalAsset    decimal.Decimal `json:"total_asset"`
	CashBalance   decimal.Decimal `json:"cash_balance"`
	BuyingPower   decimal.Decimal `json:"buying_power"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_profit_loss"`
}

// Position represents one open position in an account.
type Position struct {
	InstrumentID  string          `json:"instrument_id"`
	Symbol        string          `json:"symbol"`
	Currency      string          `json:"currency"`
	Quantity      decimal.Decimal `json:"qty"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	LastPrice     decimal.Decimal `json:"last_price"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_profit_loss"`
}

// ---------------------------------------------------------------------------
// Market-data types
// ---------------------------------------------------------------------------

// PriceLevel represents a single bid or ask level.
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// Quote is a level-one quote for a single instrument.
type Quote struct {
	Symbol       string          `json:"symbol"`
	InstrumentID string          `json:"instrument_id"`
	Timestamp    string          `json:"timestamp"`
	Last         decimal.Decimal `json:"last"`
	Bids         []PriceLevel    `json:"bids"`
	Asks         []PriceLevel    `json:"asks"`
}

// Snapshot is an end-of-interval summary for a single instrument.
type Snapshot struct {
	Symbol      string          `json:"symbol"`
	Timestamp   string          `json:"timestamp"`
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	PreClose    decimal.Decimal `json:"pre_close"`
	Last        decimal.Decimal `json:"last"`
	Volume      decimal.Decimal `json:"volume"`
	Change      decimal.Decimal `json:"change"`
	ChangeRatio decimal.Decimal `json:"change_ratio"`
}

// Instrument describes a tradable instrument.
type Instrument struct {
	InstrumentID string   `json:"instrument_id"`
	Symbol       string   `json:"symbol"`
	Exchange     string   `json:"exchange_code"`
	Name         string   `json:"name"`
	Currency     string   `json:"currency"`
	Category     Category `json:"category"`
}

// ---------------------------------------------------------------------------
// Pagination
// ---------------------------------------------------------------------------

// PaginatedResponse wraps a page of results with a cursor for the next page.
// An empty cursor means the last page.
type PaginatedResponse[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"next_cursor"`
}
