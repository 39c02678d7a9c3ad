// Package paymentsession creates and closes the lifecycle record of an
// intended donation before money has moved.
package paymentsession

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/tool"
	"github.com/fatflowers/giveledger/pkg/types"
)

var (
	ErrUnknownUser    = errors.New("unknown user")
	ErrInvalidRequest = errors.New("invalid payment session request")
	ErrSessionUnknown = errors.New("payment session not found")
)

var validate = validator.New()

type OpenRequest struct {
	UserID            string              `json:"user_id" validate:"required"`
	TargetKind        types.TargetKind    `json:"target_kind" validate:"required,oneof=organization campaign"`
	TargetID          string              `json:"target_id" validate:"required"`
	ExternalSessionID string              `json:"external_session_id" validate:"required,max=255"`
	Amount            decimal.Decimal     `json:"amount"`
	Currency          string              `json:"currency" validate:"required,len=3"`
	PaymentType       types.PaymentType   `json:"payment_type" validate:"required,oneof=one_time recurring"`
	ItemKind          *types.DonationKind `json:"item_kind" validate:"omitempty,oneof=money food clothing medical_supplies books other"`
}

type Service struct {
	store store.Store
	log   *zap.SugaredLogger
}

func NewService(st store.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: st, log: log}
}

// Open records a pending session and returns its id. It is permissive about
// duplicates: processors retry session creation, so an existing session
// with the same external id is returned instead of an error.
func (s *Service) Open(ctx context.Context, req OpenRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Amount.IsNegative() {
		return "", fmt.Errorf("%w: amount must not be negative", ErrInvalidRequest)
	}
	if _, err := s.store.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrUnknownUser, req.UserID)
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	session := &models.PaymentSession{
		ID:                tool.GenerateUUIDV7(),
		UserID:            req.UserID,
		TargetKind:        req.TargetKind,
		TargetID:          req.TargetID,
		ExternalSessionID: req.ExternalSessionID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		PaymentType:       req.PaymentType,
		ItemKind:          req.ItemKind,
		Status:            types.PaymentSessionStatusPending,
	}
	err := s.store.CreatePaymentSession(ctx, session)
	if errors.Is(err, store.ErrDuplicate) {
		existing, getErr := s.store.GetPaymentSessionByExternalID(ctx, req.ExternalSessionID)
		if getErr != nil {
			return "", fmt.Errorf("failed to load existing session: %w", getErr)
		}
		logctx.FromCtx(ctx, s.log).Infow("payment session already open",
			"external_session_id", req.ExternalSessionID, "session_id", existing.ID)
		return existing.ID, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to create payment session: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("payment session opened",
		"session_id", session.ID, "target_kind", session.TargetKind, "target_id", session.TargetID)
	return session.ID, nil
}

// Fail marks a pending session failed. Completed sessions are left alone:
// money has moved and the ledger entry stands.
func (s *Service) Fail(ctx context.Context, externalSessionID, reason string) (*models.PaymentSession, error) {
	session, err := s.store.GetPaymentSessionByExternalID(ctx, externalSessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionUnknown, externalSessionID)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	updated, err := s.store.UpdatePaymentSession(ctx, session.ID, func(ps *models.PaymentSession) error {
		if ps.Status != types.PaymentSessionStatusPending {
			return store.ErrNoChange
		}
		ps.Status = types.PaymentSessionStatusFailed
		if reason != "" {
			ps.FailureReason = &reason
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark session failed: %w", err)
	}
	if updated.Status != types.PaymentSessionStatusFailed {
		logctx.FromCtx(ctx, s.log).Warnw("ignoring failure for settled session",
			"external_session_id", externalSessionID, "status", updated.Status)
	}
	return updated, nil
}
