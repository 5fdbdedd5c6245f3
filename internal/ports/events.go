package ports

import (
	"context"

	"github.com/acalderon/weathertrader/internal/domain"
)

// EventSink receives journal events. Sinks must not fail the trading cycle;
// errors are logged by the caller and dropped.
type EventSink interface {
	Emit(ctx context.Context, ev domain.Event) error
}

// Notifier renders cycle results for a human operator.
type Notifier interface {
	// MonitorReport shows the latest monitor checks for open positions.
	MonitorReport(ctx context.Context, checks []domain.MonitorCheck) error

	// ScanReport shows scan candidates and their screen outcomes.
	ScanReport(ctx context.Context, candidates []domain.Candidate) error
}
