package ws

// Event types pushed on the quotes stream, tagged by the "event_type" field.
const (
	EventQuote    = "quote"
	EventSnapshot = "snapshot"
)

// Operation constants for subscription messages.
const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// SubscriptionRequest is the message sent to subscribe or unsubscribe.
type SubscriptionRequest struct {
	Operation string   `json:"op"`
	Symbols   []string `json:"symbols"`
	Category  string   `json:"category,omitempty"`
	AppKey    string   `json:"app_key,omitempty"`
}

// envelope is used for initial JSON parsing to extract event_type.
type envelope struct {
	EventType string `json:"event_type"`
}

// Level represents a single bid or ask level in a quote event.
type Level struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// QuoteEvent is a level-one quote update pushed by the stream. Prices stay
// strings; consumers decide their numeric representation.
type QuoteEvent struct {
	EventType string  `json:"event_type"`
	Symbol    string  `json:"symbol"`
	Timestamp string  `json:"timestamp"`
	Last      string  `json:"last"`
	Bids      []Level `json:"bids"`
	Asks      []Level `json:"asks"`
}
