package polymarket

// clob.go implements ports.Exchange over the Polymarket CLOB API.

import (
	"context"
	"fmt"

	"github.com/acalderon/weathertrader/internal/domain"
)

const (
	orderPath   = "/order"
	ordersPath  = "/data/orders"
	statusPath  = "/data/order"
	pricePath   = "/price"
	bookPath    = "/book"
	balancePath = "/balance-allowance"
)

// PlaceOrder submits a limit order.
func (c *Client) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	body := clobOrderRequest{
		TokenID:   req.TokenID,
		Side:      string(req.Direction),
		Price:     req.Price,
		Size:      req.Size,
		OrderType: string(req.Kind),
	}
	var resp clobOrderResponse
	if err := c.post(ctx, c.clobLimiter, c.clobBase+orderPath, body, &resp); err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("clob.PlaceOrder: %w", err)
	}
	if !resp.Success {
		return domain.PlacedOrder{}, fmt.Errorf("clob.PlaceOrder: rejected: %s", resp.ErrMsg)
	}
	return domain.PlacedOrder{ExchangeOrderID: resp.OrderID}, nil
}

// CancelOrder cancels a resting order.
func (c *Client) CancelOrder(ctx context.Context, exchangeOrderID string) error {
	url := fmt.Sprintf("%s%s?id=%s", c.clobBase, orderPath, exchangeOrderID)
	if err := c.del(ctx, c.clobLimiter, url, nil); err != nil {
		return fmt.Errorf("clob.CancelOrder %s: %w", exchangeOrderID, err)
	}
	return nil
}

// OrderState fetches an order's status and fill.
func (c *Client) OrderState(ctx context.Context, exchangeOrderID string) (domain.OrderState, error) {
	url := fmt.Sprintf("%s%s/%s", c.clobBase, statusPath, exchangeOrderID)
	var resp clobOrderStatus
	if err := c.get(ctx, c.clobLimiter, url, &resp); err != nil {
		return domain.OrderState{}, fmt.Errorf("clob.OrderState %s: %w", exchangeOrderID, err)
	}
	return mapOrderStatus(resp), nil
}

// OpenOrderIDs lists our resting orders' ids.
func (c *Client) OpenOrderIDs(ctx context.Context) ([]string, error) {
	var resp []clobOpenOrder
	if err := c.get(ctx, c.clobLimiter, c.clobBase+ordersPath, &resp); err != nil {
		return nil, fmt.Errorf("clob.OpenOrderIDs: %w", err)
	}
	ids := make([]string, 0, len(resp))
	for _, o := range resp {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

// Price returns the current sell-side price for a token.
func (c *Client) Price(ctx context.Context, tokenID string) (float64, error) {
	url := fmt.Sprintf("%s%s?token_id=%s&side=sell", c.clobBase, pricePath, tokenID)
	var resp clobPriceResponse
	if err := c.get(ctx, c.booksLimiter, url, &resp); err != nil {
		return 0, fmt.Errorf("clob.Price %s: %w", tokenID, err)
	}
	p := domain.ParsePrice(resp.Price)
	if p <= 0 {
		return 0, fmt.Errorf("clob.Price %s: empty quote", tokenID)
	}
	return p, nil
}

// OrderBook fetches the full resting book for a token.
func (c *Client) OrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	url := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, bookPath, tokenID)
	var resp orderBookResponse
	if err := c.get(ctx, c.booksLimiter, url, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("clob.OrderBook %s: %w", tokenID, err)
	}
	return mapOrderBook(tokenID, resp), nil
}

// Balance returns spendable USDC.
func (c *Client) Balance(ctx context.Context) (domain.Balance, error) {
	var resp clobBalanceResponse
	if err := c.get(ctx, c.clobLimiter, c.clobBase+balancePath, &resp); err != nil {
		return domain.Balance{}, fmt.Errorf("clob.Balance: %w", err)
	}
	usdc, _ := resp.Balance.Float64()
	return domain.Balance{USDC: usdc}, nil
}
