// Package ledger turns a processor confirmation into exactly one donation
// and schedules everything that follows from it.
//
// Completion runs in ordered, individually atomic steps (session flip, then
// donation insert with its outbox tasks). Every step tolerates having run
// before, so a retry after a crash at any point finishes the job without a
// second donation. A unique index on donation.payment_session_id closes the
// window between two concurrent deliveries: the losing insert is reported
// as already completed.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/app/service/scheduler"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/metrics"
	"github.com/fatflowers/giveledger/pkg/tool"
	"github.com/fatflowers/giveledger/pkg/types"
)

var (
	ErrSessionNotFound     = errors.New("payment session not found")
	ErrDonorProfileMissing = errors.New("donor profile missing")
	ErrUnresolvableOwner   = errors.New("donation target has no owning organization")
)

type CompleteRequest struct {
	ExternalSessionID   string  `json:"external_session_id" binding:"required"`
	ExternalPaymentRef  *string `json:"external_payment_ref"`
	ExternalCustomerRef *string `json:"external_customer_ref"`
}

type CompleteResult struct {
	DonationID       string `json:"donation_id"`
	AlreadyCompleted bool   `json:"already_completed"`
}

type Service struct {
	store store.Store
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewService(st store.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// Complete is the idempotent confirmation entry point.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error) {
	lg := logctx.FromCtx(ctx, s.log).With("external_session_id", req.ExternalSessionID)

	session, err := s.store.GetPaymentSessionByExternalID(ctx, req.ExternalSessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			lg.Errorw("confirmation for unknown payment session")
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, req.ExternalSessionID)
		}
		return nil, fmt.Errorf("failed to load payment session: %w", err)
	}

	if session.Status == types.PaymentSessionStatusCompleted {
		existing, err := s.store.FindDonationByPaymentSession(ctx, session.ID)
		if err == nil {
			lg.Infow("payment session already completed", "donation_id", existing.ID)
			return &CompleteResult{DonationID: existing.ID, AlreadyCompleted: true}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up donation: %w", err)
		}
		// status flipped but the ledger write never happened: finish it
		lg.Warnw("completed session has no donation, repairing", "session_id", session.ID)
	}

	session, err = s.markCompleted(ctx, session.ID, req)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrDonorProfileMissing, session.UserID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	donor, err := s.store.GetDonorByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			lg.Errorw("donor profile missing", "user_id", user.ID)
			return nil, fmt.Errorf("%w: user %s", ErrDonorProfileMissing, user.ID)
		}
		return nil, fmt.Errorf("failed to load donor: %w", err)
	}

	orgID, campaignID, err := s.resolveOwner(ctx, session)
	if err != nil {
		lg.Errorw("cannot resolve owning organization", "target_kind", session.TargetKind, "target_id", session.TargetID, "err", err)
		return nil, err
	}

	donation := newDonation(session, donor.ID, orgID, campaignID, s.now())
	tasks, err := followUpTasks(donation, user.ID)
	if err != nil {
		return nil, err
	}

	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		if err := tx.InsertDonation(ctx, donation); err != nil {
			return err
		}
		return tx.EnqueueTasks(ctx, tasks...)
	})
	if errors.Is(err, store.ErrDuplicate) {
		// a concurrent delivery won the insert
		winner, findErr := s.store.FindDonationByPaymentSession(ctx, session.ID)
		if findErr != nil {
			return nil, fmt.Errorf("failed to load concurrent donation: %w", findErr)
		}
		lg.Infow("concurrent confirmation already recorded donation", "donation_id", winner.ID)
		return &CompleteResult{DonationID: winner.ID, AlreadyCompleted: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record donation: %w", err)
	}

	metrics.DonationsCompleted.WithLabelValues(string(session.TargetKind), string(donation.Kind)).Inc()
	lg.Infow("donation recorded", "donation_id", donation.ID, "organization_id", orgID,
		"campaign_id", lo.FromPtr(campaignID), "amount", donation.MonetaryAmount().String())
	return &CompleteResult{DonationID: donation.ID}, nil
}

// markCompleted flips the session to completed. Re-applying it only fills
// in references that were missing.
func (s *Service) markCompleted(ctx context.Context, sessionID string, req CompleteRequest) (*models.PaymentSession, error) {
	now := s.now()
	session, err := s.store.UpdatePaymentSession(ctx, sessionID, func(ps *models.PaymentSession) error {
		changed := false
		if ps.Status != types.PaymentSessionStatusCompleted {
			if ps.Status == types.PaymentSessionStatusFailed {
				logctx.FromCtx(ctx, s.log).Warnw("confirmation for failed session, completing it", "session_id", ps.ID)
			}
			ps.Status = types.PaymentSessionStatusCompleted
			ps.CompletedAt = &now
			changed = true
		}
		if req.ExternalPaymentRef != nil && ps.ExternalPaymentRef == nil {
			ps.ExternalPaymentRef = req.ExternalPaymentRef
			changed = true
		}
		if req.ExternalCustomerRef != nil && ps.ExternalCustomerRef == nil {
			ps.ExternalCustomerRef = req.ExternalCustomerRef
			changed = true
		}
		if !changed {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark session completed: %w", err)
	}
	return session, nil
}

// resolveOwner returns the organization that owns the session target, and
// the campaign id for campaign targets.
func (s *Service) resolveOwner(ctx context.Context, session *models.PaymentSession) (string, *string, error) {
	switch session.TargetKind {
	case types.TargetKindOrganization:
		if session.TargetID == "" {
			return "", nil, fmt.Errorf("%w: empty organization id", ErrUnresolvableOwner)
		}
		return session.TargetID, nil, nil
	case types.TargetKindCampaign:
		campaign, err := s.store.GetCampaign(ctx, session.TargetID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", nil, fmt.Errorf("%w: campaign %s not found", ErrUnresolvableOwner, session.TargetID)
			}
			return "", nil, fmt.Errorf("failed to load campaign: %w", err)
		}
		if campaign.OrganizationID == "" {
			return "", nil, fmt.Errorf("%w: campaign %s", ErrUnresolvableOwner, campaign.ID)
		}
		return campaign.OrganizationID, lo.ToPtr(campaign.ID), nil
	}
	return "", nil, fmt.Errorf("%w: unknown target kind %q", ErrUnresolvableOwner, session.TargetKind)
}

func newDonation(session *models.PaymentSession, donorID, orgID string, campaignID *string, now time.Time) *models.Donation {
	kind := session.DonationKind()
	d := &models.Donation{
		ID:               tool.GenerateUUIDV7(),
		DonorID:          donorID,
		OrganizationID:   orgID,
		CampaignID:       campaignID,
		Kind:             kind,
		Status:           types.DonationStatusCompleted,
		PaymentSessionID: lo.ToPtr(session.ID),
		DonatedAt:        &now,
	}
	if kind.IsMonetary() {
		d.Amount = lo.ToPtr(session.Amount)
		d.Currency = session.Currency
	}
	return d
}

type taskSpec struct {
	name string
	key  string
	args any
}

// followUpTasks are the organization cascade, the campaign cascade for
// campaign donations, and the receipt.
func followUpTasks(d *models.Donation, userID string) ([]*models.Task, error) {
	specs := []taskSpec{
		{types.TaskCascadeOrganization, types.CascadeDedupKey(types.CascadeTargetOrganization, d.ID), types.CascadeArgs{DonationID: d.ID}},
	}
	if d.CampaignID != nil {
		specs = append(specs, taskSpec{types.TaskCascadeCampaign, types.CascadeDedupKey(types.CascadeTargetCampaign, d.ID), types.CascadeArgs{DonationID: d.ID}})
	}
	specs = append(specs, taskSpec{types.TaskReceiptGenerate, types.ReceiptDedupKey(d.ID), types.ReceiptArgs{DonationID: d.ID, UserID: userID}})

	tasks := make([]*models.Task, 0, len(specs))
	for _, spec := range specs {
		t, err := scheduler.NewTask(spec.name, spec.key, spec.args)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
