package domain

import "time"

// OrderStatus is the lifecycle state of a tracked entry order.
// OPEN is the only non-terminal state.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderFilled    OrderStatus = "FILLED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool { return s != OrderOpen }

// CancelTTLExpired marks orders cancelled because they sat unfilled past
// their time-to-live.
const CancelTTLExpired = "TTL_EXPIRED"

// OrderTTL is how long an entry order rests before we pull it.
const OrderTTL = 30 * time.Minute

// OpenOrder is a resting GTC entry order plus the forecast context it was
// placed under. The context is carried into the Position on fill so exits
// can recompute edge against the same threshold and sources.
type OpenOrder struct {
	ID              string // local uuid
	ExchangeOrderID string
	ConditionID     string
	TokenID         string
	MarketName      string
	Side            Side
	Price           float64
	Amount          float64 // USDC committed
	Size            float64 // shares = Amount / Price

	EntryEdge  float64
	Confidence float64
	Sources    []string
	City       string
	Threshold  Temperature
	ResolvesAt time.Time
	LocalUsed  bool

	PlacedAt     time.Time
	ExpiresAt    time.Time // PlacedAt + OrderTTL, fixed at creation
	Status       OrderStatus
	CancelReason string
}

// Expired reports whether the order's TTL has lapsed.
func (o OpenOrder) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// LockedCapital is the USDC this order keeps unavailable while OPEN.
func (o OpenOrder) LockedCapital() float64 {
	if o.Status != OrderOpen {
		return 0
	}
	return o.Amount
}
