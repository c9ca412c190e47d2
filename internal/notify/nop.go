package notify

import (
	"context"

	"github.com/THARA-2106/n-libMgmtSys/internal/domain"
)

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.ReservationEvent) error {
	return nil
}
