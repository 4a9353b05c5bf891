// Package checkout orchestrates inbound checkout requests against the
// remote order backend and maps every outcome onto the fixed result
// contract.
package checkout

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/KazuakiWatanabe/scancheckout-oss/internal/domain/checkout"
)

// Outcome classifies a terminal result for transport-level status
// mapping. The dispatcher is the single place internal error kinds are
// converted; callers above it never see them.
type Outcome int

const (
	// OutcomeSuccess is a confirmed order.
	OutcomeSuccess Outcome = iota
	// OutcomeRejected is a request refused before any remote call
	// (unsupported mode, invalid shape).
	OutcomeRejected
	// OutcomeDuplicate is a reused idempotency key.
	OutcomeDuplicate
	// OutcomeUpstreamFailure is any failure originating from the remote
	// system, transport or application.
	OutcomeUpstreamFailure
	// OutcomeInternalError is everything unrecognized.
	OutcomeInternalError
)

// DefaultIdempotencyTTL is how long a consumed idempotency key blocks
// resubmission.
const DefaultIdempotencyTTL = 24 * time.Hour

// Config holds dispatcher defaults derived from store configuration.
type Config struct {
	// DefaultPartnerID is the customer used when a request names none.
	DefaultPartnerID int64
	// DefaultPricelistID overrides remote pricelist selection when set.
	DefaultPricelistID *int64
	// IdempotencyTTL bounds how long submission keys are remembered.
	IdempotencyTTL time.Duration
}

// Service is the checkout dispatcher: it validates the request shape,
// gates the flow by mode, invokes the orchestrator and produces exactly
// one terminal result per request. No loops, no intermediate states
// beyond validate -> create -> confirm.
type Service struct {
	orchestrator checkout.OrderOrchestrator
	idempotency  checkout.IdempotencyStore
	cfg          Config
	logger       *zap.Logger
}

// NewService creates a checkout dispatcher.
func NewService(orchestrator checkout.OrderOrchestrator, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultPartnerID == 0 {
		cfg.DefaultPartnerID = 1
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = DefaultIdempotencyTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orchestrator: orchestrator,
		cfg:          cfg,
		logger:       logger,
	}
}

// SetIdempotencyStore enables duplicate-submission protection. Without
// a store, idempotency keys are accepted and ignored.
func (s *Service) SetIdempotencyStore(store checkout.IdempotencyStore) {
	s.idempotency = store
}

// Checkout processes one request end to end. idempotencyKey may be
// empty; a non-empty key that was already consumed rejects the request
// before any remote call.
func (s *Service) Checkout(ctx context.Context, req checkout.Request, idempotencyKey string) (checkout.Result, Outcome) {
	if idempotencyKey != "" && s.idempotency != nil {
		claimed, err := s.idempotency.MarkProcessed(ctx, idempotencyKey, s.cfg.IdempotencyTTL)
		if err != nil {
			// Fail open: a degraded dedupe store must not block sales.
			s.logger.Warn("idempotency store unavailable, continuing without dedupe",
				zap.String("store_id", req.StoreID),
				zap.Error(err),
			)
		} else if !claimed {
			s.logger.Warn("duplicate checkout submission rejected",
				zap.String("store_id", req.StoreID),
				zap.String("idempotency_key", idempotencyKey),
			)
			return checkout.FailureResult(checkout.TargetSaleOrder, checkout.ErrDuplicateRequest.Error()), OutcomeDuplicate
		}
	}

	if err := req.Validate(); err != nil {
		return checkout.FailureResult(checkout.TargetSaleOrder, err.Error()), OutcomeRejected
	}

	// Fixed policy for this phase, not a placeholder: only the sale
	// flow is wired, and pos requests must never reach the remote side.
	if req.Mode != checkout.ModeSale {
		err := &checkout.ModeNotSupportedError{Mode: req.Mode}
		return checkout.FailureResult(checkout.TargetSaleOrder, err.Error()), OutcomeRejected
	}

	partnerID := s.cfg.DefaultPartnerID
	if req.PartnerID != nil {
		partnerID = *req.PartnerID
	}

	orderID, err := s.orchestrator.CreateDraft(ctx, partnerID, req.Lines, s.cfg.DefaultPricelistID, req.Note)
	if err != nil {
		return s.failureFor(req, err)
	}

	draft, err := checkout.NewDraftOrder(orderID, req.Lines)
	if err != nil {
		return s.failureFor(req, err)
	}

	if err := s.orchestrator.Confirm(ctx, draft.RemoteID); err != nil {
		// The draft persists remotely; the typed contract forbids
		// returning its id on failure, so the message carries it for
		// manual reconciliation.
		s.logger.Error("order confirmation failed, draft left behind",
			zap.String("store_id", req.StoreID),
			zap.Int64("order_id", draft.RemoteID),
			zap.Error(err),
		)
		return s.failureFor(req, err)
	}
	draft.MarkConfirmed()

	s.logger.Info("checkout confirmed",
		zap.String("store_id", req.StoreID),
		zap.String("operator_id", req.OperatorID),
		zap.Int64("order_id", draft.RemoteID),
		zap.Int("line_count", len(req.Lines)),
	)
	return checkout.SuccessResult(checkout.TargetSaleOrder, draft.RemoteID), OutcomeSuccess
}

// failureFor converts a recognized error kind into the terminal failure
// result. Unrecognized errors become a generic internal failure so
// internals never leak to the caller.
func (s *Service) failureFor(req checkout.Request, err error) (checkout.Result, Outcome) {
	var (
		unknownSku   *checkout.UnknownSkuError
		remoteCall   *checkout.RemoteCallError
		authErr      *checkout.AuthenticationError
		invalidResp  *checkout.InvalidResponseError
		confirmation *checkout.ConfirmationError
	)

	switch {
	case errors.As(err, &unknownSku),
		errors.As(err, &remoteCall),
		errors.As(err, &authErr),
		errors.As(err, &invalidResp),
		errors.As(err, &confirmation):
		s.logger.Warn("checkout failed upstream",
			zap.String("store_id", req.StoreID),
			zap.Error(err),
		)
		return checkout.FailureResult(checkout.TargetSaleOrder, err.Error()), OutcomeUpstreamFailure
	default:
		s.logger.Error("checkout failed unexpectedly",
			zap.String("store_id", req.StoreID),
			zap.Error(err),
		)
		return checkout.FailureResult(checkout.TargetSaleOrder, "internal error"), OutcomeInternalError
	}
}
