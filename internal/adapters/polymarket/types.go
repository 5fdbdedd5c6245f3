package polymarket

import "encoding/json"

// Raw Polymarket API DTOs, used only inside this package. Conversion to
// domain entities happens in mapping.go.

// --- CLOB API ---

// clobOrderRequest is the body of POST /order.
type clobOrderRequest struct {
	TokenID   string  `json:"token_id"`
	Side      string  `json:"side"` // BUY | SELL
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	OrderType string  `json:"order_type"` // GTC
}

// clobOrderResponse is the acknowledgement of POST /order.
type clobOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderID"`
	ErrMsg  string `json:"errorMsg"`
}

// clobOrderStatus is the response of GET /data/order/{id}.
type clobOrderStatus struct {
	ID           string      `json:"id"`
	Status       string      `json:"status"` // LIVE | MATCHED | CANCELED
	Price        json.Number `json:"price"`
	OriginalSize json.Number `json:"original_size"`
	SizeMatched  json.Number `json:"size_matched"`
}

// clobOpenOrder is one entry of GET /data/orders.
type clobOpenOrder struct {
	ID string `json:"id"`
}

// clobPriceResponse is the response of GET /price.
type clobPriceResponse struct {
	Price string `json:"price"`
}

// clobBalanceResponse is the response of GET /balance-allowance.
type clobBalanceResponse struct {
	Balance json.Number `json:"balance"`
}

// orderBookResponse is the response of GET /book.
type orderBookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw is a raw price level (strings for precision).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// --- Gamma API ---

// gammaEventsResponse is the response of GET /events.
type gammaEventsResponse []gammaEvent

// gammaEvent groups the markets of one listed event.
type gammaEvent struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Slug    string        `json:"slug"`
	Markets []gammaMarket `json:"markets"`
}

// gammaMarket is one market's metadata. Gamma returns several numeric
// fields as JSON strings.
type gammaMarket struct {
	ConditionID   string      `json:"conditionId"`
	Question      string      `json:"question"`
	Slug          string      `json:"slug"`
	EndDateISO    string      `json:"endDateIso"`
	Liquidity     json.Number `json:"liquidity"`
	ClobTokenIDs  string      `json:"clobTokenIds"`  // JSON array as string
	OutcomePrices string      `json:"outcomePrices"` // JSON array as string
	Outcomes      string      `json:"outcomes"`      // JSON array as string
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
}
