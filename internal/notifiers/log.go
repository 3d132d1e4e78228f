package notifiers

import (
	"context"

	"github.com/sbilibin2017/gw-remit/internal/logger"
	"github.com/sbilibin2017/gw-remit/internal/models"
)

// LogNotifier only logs notifications. Used when no broker is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Notify(ctx context.Context, n models.Notification) error {
	logger.Log.Infow("notification",
		"event_id", n.EventID,
		"kind", n.Kind,
		"subject", n.Subject,
		"email", n.Email,
		"invoice_id", n.InvoiceID,
		"status", n.Status,
	)
	return nil
}

func (LogNotifier) Close() error {
	return nil
}
