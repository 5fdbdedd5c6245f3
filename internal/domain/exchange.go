package domain

// TradeDirection is the order direction on the exchange (distinct from the
// YES/NO market side).
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "BUY"
	DirectionSell TradeDirection = "SELL"
)

// OrderKind is the time-in-force. Everything this system places is GTC; a
// FOK sell on a thin book would fail entirely instead of filling what it can.
type OrderKind string

const OrderGTC OrderKind = "GTC"

// PlaceOrderRequest is what the exchange adapter needs to place an order.
type PlaceOrderRequest struct {
	TokenID   string
	Direction TradeDirection
	Price     float64
	Size      float64 // shares
	Kind      OrderKind
}

// PlacedOrder is the exchange's acknowledgement.
type PlacedOrder struct {
	ExchangeOrderID string
}

// OrderState is a snapshot of an order on the exchange.
type OrderState struct {
	Status     OrderStatus
	FilledSize float64
	AvgPrice   float64
}

// Balance is the account's spendable USDC as reported by the exchange.
type Balance struct {
	USDC float64
}
