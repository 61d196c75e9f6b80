// Package source defines how notification candidates reach the
// application from the email classification service.
package source

import (
	"context"

	"github.com/nhle/mediadash/internal/model"
)

// Source produces notification construction parameters. Implementations
// must not block past ctx's deadline.
type Source interface {
	// Name identifies the source in logs and sync statuses.
	Name() string

	// Fetch returns any notifications that became available since the
	// previous call. The source keeps them claimed until the batch is
	// acknowledged; claimed but unacknowledged notifications are offered
	// again when the source is next opened.
	Fetch(ctx context.Context) (Batch, error)
}

// Batch is the result of one Fetch.
type Batch struct {
	Params []model.Params
	ack    func() error
}

// NewBatch returns a batch whose Ack calls ack. A nil ack makes Ack a
// no-op.
func NewBatch(params []model.Params, ack func() error) Batch {
	return Batch{Params: params, ack: ack}
}

// Ack tells the source the batch has been stored and may be forgotten.
func (b Batch) Ack() error {
	if b.ack == nil {
		return nil
	}
	return b.ack()
}
