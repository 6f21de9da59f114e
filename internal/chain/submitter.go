package chain

import (
	"context"

	"github.com/verdantlab/ranger/internal/logging"
	"github.com/verdantlab/ranger/internal/models"
)

// Submitter is the single entry point for transaction submission. The
// strategy is resolved here, once per call, instead of being threaded
// through the layers above.
type Submitter interface {
	Submit(ctx context.Context, call Call, useRelay bool) (*models.Receipt, error)
}

// caller is the shared shape of the relay and direct clients.
type caller interface {
	Submit(ctx context.Context, call Call) (*models.Receipt, error)
}

// Pipeline dispatches between the gasless relay and direct submission.
type Pipeline struct {
	relay  caller
	direct caller
	log    logging.Logger
}

// NewPipeline builds a submission pipeline. relay may be nil when the relay
// is not configured; submitting with useRelay then fails with
// ErrRelayUnavailable so the orchestrator can record the reason and the user
// can disable relay mode.
func NewPipeline(relay *RelayClient, direct *DirectClient, log logging.Logger) *Pipeline {
	p := &Pipeline{direct: direct, log: log}
	if relay != nil {
		p.relay = relay
	}
	return p
}

func (p *Pipeline) Submit(ctx context.Context, call Call, useRelay bool) (*models.Receipt, error) {
	if useRelay {
		if p.relay == nil {
			return nil, ErrRelayUnavailable
		}
		rec, err := p.relay.Submit(ctx, call)
		if err != nil {
			return nil, err
		}
		p.log.Info(ctx, "transaction relayed", "method", call.Method, "tx_hash", rec.TxHash)
		return rec, nil
	}

	rec, err := p.direct.Submit(ctx, call)
	if err != nil {
		return nil, err
	}
	p.log.Info(ctx, "transaction submitted", "method", call.Method, "tx_hash", rec.TxHash)
	return rec, nil
}
