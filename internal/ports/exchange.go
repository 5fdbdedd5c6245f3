package ports

import (
	"context"

	"github.com/acalderon/weathertrader/internal/domain"
)

// Exchange is the trading surface of the prediction market.
// Implemented by adapters/polymarket.
type Exchange interface {
	// PlaceOrder submits a GTC limit order and returns the exchange id.
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error)

	// CancelOrder cancels a resting order. Cancelling an already-terminal
	// order returns an error; callers re-poll and trust the exchange state.
	CancelOrder(ctx context.Context, exchangeOrderID string) error

	// OrderState fetches the current status and fill of an order.
	OrderState(ctx context.Context, exchangeOrderID string) (domain.OrderState, error)

	// Price returns the current sell-side price for a token (what we would
	// receive selling into the book).
	Price(ctx context.Context, tokenID string) (float64, error)

	// OrderBook fetches the full resting book for a token.
	OrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)

	// Balance returns spendable USDC.
	Balance(ctx context.Context) (domain.Balance, error)

	// OpenOrderIDs lists exchange ids of our currently resting orders.
	// Used by the startup sweep to detect phantom local orders.
	OpenOrderIDs(ctx context.Context) ([]string, error)
}

// BookProvider is the read-only order book surface. Exchange satisfies it;
// the scanner depends on nothing more.
type BookProvider interface {
	OrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}
