package payments

import (
	"context"

	"meramarket/models"
)

// Gateway is the payments capability: one payment processor.
type Gateway interface {
	// Name is the provider name recorded on every payment it creates.
	Name() string
	// CreateOrder registers the charge with the processor and fills the
	// gateway order id (and client secret, where the processor has one).
	CreateOrder(ctx context.Context, p *models.Payment) error
	// Confirm checks the client's proof of payment and returns the
	// processor's transaction id. A rejected proof wraps ErrDeclined.
	Confirm(ctx context.Context, p *models.Payment, proof models.PaymentProof) (string, error)
	Refund(ctx context.Context, p *models.Payment, reason string) error
}

// Ledger records payments independently of the active gateway so history
// survives provider switches.
type Ledger interface {
	// Insert stores p at version 1.
	Insert(ctx context.Context, p *models.Payment) error
	// Save writes p only if the stored version still equals p.Version and
	// returns ErrConflict otherwise. On success p.Version is incremented.
	Save(ctx context.Context, p *models.Payment) error
	Get(ctx context.Context, id string) (*models.Payment, error)
	// Query returns matches newest first.
	Query(ctx context.Context, f models.PaymentFilters, page models.PageRequest) (models.Page[models.Payment], error)
	// Revenue sums the amounts of completed payments.
	Revenue(ctx context.Context) (float64, error)
}
