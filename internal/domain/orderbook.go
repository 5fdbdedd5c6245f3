package domain

import "strconv"

// OrderBook is the resting book for one token.
type OrderBook struct {
	TokenID string
	Bids    []BookEntry // descending price
	Asks    []BookEntry // ascending price
}

// BookEntry is one price level.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid returns the highest bid, 0 when the book is empty.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk returns the lowest ask, 0 when the book is empty.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// Midpoint returns the mid of best bid and ask.
func (ob OrderBook) Midpoint() float64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// BidDepthUSDC sums size*price across all bid levels. The liquidity screen
// only counts bids: that is what we would sell into on an exit.
func (ob OrderBook) BidDepthUSDC() float64 {
	var total float64
	for _, b := range ob.Bids {
		total += b.Size * b.Price
	}
	return total
}

// ParsePrice converts an API price string to float64.
func ParsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
