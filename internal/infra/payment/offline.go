package payment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/commands"
)

var ErrUnknownAuthorization = errs.New("unknown authorization reference")

// OfflineGateway is a sandbox payment collaborator for local and test
// deployments. It approves every authorization and keeps references in
// memory so capture and refund validate against real prior authorizations.
type OfflineGateway struct {
	logger *slog.Logger
	seq    atomic.Int64

	mu         sync.Mutex
	authorized map[string]int64
}

func NewOfflineGateway(logger *slog.Logger) *OfflineGateway {
	return &OfflineGateway{
		logger:     logger,
		authorized: make(map[string]int64),
	}
}

func (g *OfflineGateway) Authorize(_ context.Context, amountCents int64, currency string, requesterID uuid.UUID) (commands.AuthorizationResult, error) {
	ref := fmt.Sprintf("auth-%06d", g.seq.Add(1))

	g.mu.Lock()
	g.authorized[ref] = amountCents
	g.mu.Unlock()

	g.logger.Info("payment authorized",
		"reference", ref,
		"amount_cents", amountCents,
		"currency", currency,
		"requester_id", requesterID,
	)
	return commands.AuthorizationResult{Approved: true, ReferenceID: ref}, nil
}

func (g *OfflineGateway) Capture(_ context.Context, referenceID string, finalAmountCents int64) error {
	g.mu.Lock()
	_, ok := g.authorized[referenceID]
	g.mu.Unlock()
	if !ok {
		return errs.Wrapf(ErrUnknownAuthorization, "capture %s", referenceID)
	}

	g.logger.Info("payment captured", "reference", referenceID, "amount_cents", finalAmountCents)
	return nil
}

func (g *OfflineGateway) Refund(_ context.Context, referenceID string, amountCents int64) error {
	g.mu.Lock()
	_, ok := g.authorized[referenceID]
	g.mu.Unlock()
	if !ok {
		return errs.Wrapf(ErrUnknownAuthorization, "refund %s", referenceID)
	}

	g.logger.Info("payment refunded", "reference", referenceID, "amount_cents", amountCents)
	return nil
}
