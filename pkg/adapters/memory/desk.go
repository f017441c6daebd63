package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/hearth/pkg/domain"
)

// Desk implements ports.TicketSubmitter by keeping tickets in memory.
type Desk struct {
	mu      sync.Mutex
	tickets []domain.Ticket
}

// NewDesk creates an empty desk.
func NewDesk() *Desk {
	return &Desk{}
}

// Submit records the ticket.
func (d *Desk) Submit(ctx context.Context, ticket domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tickets = append(d.tickets, ticket)
	return nil
}

// Tickets returns the submitted tickets in order.
func (d *Desk) Tickets() []domain.Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.tickets)
}
