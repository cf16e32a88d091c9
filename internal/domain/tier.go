package domain

import "time"

// TicketTier represents a reservable admission category with a fixed
// capacity. QuantitySold is mutated only by the allocation engine through
// conditional updates; QuantityTotal is organizer-controlled.
type TicketTier struct {
	ID            string
	EventID       string
	Name          string
	Description   string
	PriceCents    int64
	Currency      string
	QuantityTotal int
	QuantitySold  int
	CreatedAt     time.Time
}

// Remaining returns the number of units still reservable.
func (t TicketTier) Remaining() int {
	if r := t.QuantityTotal - t.QuantitySold; r > 0 {
		return r
	}
	return 0
}
