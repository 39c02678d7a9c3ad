// Package aggregate maintains the derived counters on organizations and
// campaigns. Each donation's delta is applied at most once per target: a
// cascade_application claim is written in the same transaction as the
// delta, under the target row lock, so redelivered tasks are no-ops. Donor
// counts are recomputed by scan since a donor may give more than once.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/app/service/popularity"
	"github.com/fatflowers/giveledger/internal/app/service/scheduler"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/metrics"
	"github.com/fatflowers/giveledger/pkg/tool"
	"github.com/fatflowers/giveledger/pkg/types"
)

type Service struct {
	store store.Store
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewService(st store.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// ApplyDonation applies a donation to its organization and, when it has
// one, its campaign.
func (s *Service) ApplyDonation(ctx context.Context, d *models.Donation) error {
	if _, err := s.applyOrganization(ctx, d); err != nil {
		return err
	}
	if d.CampaignID == nil {
		return nil
	}
	_, err := s.applyCampaign(ctx, d)
	return err
}

// ApplyToOrganization applies the donation to its organization. It reports
// whether the delta was applied by this call.
func (s *Service) ApplyToOrganization(ctx context.Context, donationID string) (bool, error) {
	d, err := s.loadDonation(ctx, donationID)
	if err != nil || d == nil {
		return false, err
	}
	return s.applyOrganization(ctx, d)
}

// ApplyToCampaign applies the donation to its campaign, if it has one.
func (s *Service) ApplyToCampaign(ctx context.Context, donationID string) (bool, error) {
	d, err := s.loadDonation(ctx, donationID)
	if err != nil || d == nil {
		return false, err
	}
	if d.CampaignID == nil {
		return false, nil
	}
	return s.applyCampaign(ctx, d)
}

// loadDonation returns nil for donations that do not count towards totals.
func (s *Service) loadDonation(ctx context.Context, donationID string) (*models.Donation, error) {
	d, err := s.store.GetDonation(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load donation %s: %w", donationID, err)
	}
	if d.Status != types.DonationStatusCompleted {
		logctx.FromCtx(ctx, s.log).Infow("skipping cascade for donation that is not completed",
			"donation_id", d.ID, "status", d.Status)
		return nil, nil
	}
	return d, nil
}

func (s *Service) applyOrganization(ctx context.Context, d *models.Donation) (bool, error) {
	applied := false
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		applied = false
		org, err := tx.UpdateOrganization(ctx, d.OrganizationID, func(o *models.Organization) error {
			claimed, err := tx.ClaimCascade(ctx, d.ID, types.CascadeTargetOrganization, s.now())
			if err != nil {
				return err
			}
			if !claimed {
				return store.ErrNoChange
			}
			totals, err := tx.DonationTotals(ctx, store.OrganizationScope(o.ID))
			if err != nil {
				return err
			}
			o.TotalDonationsReceived++
			o.TotalAmountRaised = o.TotalAmountRaised.Add(d.MonetaryAmount())
			o.TotalDonorCount = totals.Donors
			applied = true
			return nil
		})
		if err != nil || !applied {
			return err
		}
		return enqueuePopularity(ctx, tx, org.EntityKind(), org.ID, "cascade:"+d.ID)
	})
	if err != nil {
		return false, fmt.Errorf("failed to apply donation %s to organization %s: %w", d.ID, d.OrganizationID, err)
	}
	s.logApplied(ctx, d, types.CascadeTargetOrganization, applied)
	return applied, nil
}

func (s *Service) applyCampaign(ctx context.Context, d *models.Donation) (bool, error) {
	campaignID := *d.CampaignID
	applied := false
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		applied = false
		_, err := tx.UpdateCampaign(ctx, campaignID, func(c *models.Campaign) error {
			claimed, err := tx.ClaimCascade(ctx, d.ID, types.CascadeTargetCampaign, s.now())
			if err != nil {
				return err
			}
			if !claimed {
				return store.ErrNoChange
			}
			totals, err := tx.DonationTotals(ctx, store.CampaignScope(c.ID))
			if err != nil {
				return err
			}
			c.RaisedAmount = c.RaisedAmount.Add(d.MonetaryAmount())
			c.DonorCount = totals.Donors
			closeIfFunded(c)
			applied = true
			return nil
		})
		if err != nil || !applied {
			return err
		}
		return enqueuePopularity(ctx, tx, types.EntityKindCampaign, campaignID, "cascade:"+d.ID)
	})
	if err != nil {
		return false, fmt.Errorf("failed to apply donation %s to campaign %s: %w", d.ID, campaignID, err)
	}
	s.logApplied(ctx, d, types.CascadeTargetCampaign, applied)
	return applied, nil
}

// closeIfFunded completes an active campaign whose target is met.
func closeIfFunded(c *models.Campaign) {
	if c.Status == types.CampaignStatusActive && c.GoalReached() {
		c.Status = types.CampaignStatusCompleted
	}
}

func (s *Service) logApplied(ctx context.Context, d *models.Donation, target types.CascadeTarget, applied bool) {
	lg := logctx.FromCtx(ctx, s.log)
	if !applied {
		metrics.CascadeSkipped.WithLabelValues(string(target)).Inc()
		lg.Infow("cascade already applied", "donation_id", d.ID, "target", target)
		return
	}
	lg.Infow("cascade applied", "donation_id", d.ID, "target", target, "amount", d.MonetaryAmount().String())
}

func enqueuePopularity(ctx context.Context, tx store.Store, kind types.EntityKind, id, trigger string) error {
	task, err := popularity.NewRecomputeTask(kind, id, trigger)
	if err != nil {
		return err
	}
	return tx.EnqueueTasks(ctx, task)
}

// ReconcileOrganization rebuilds the organization's donation counters from
// the ledger and claims every completed donation, so cascades still in
// flight become no-ops.
func (s *Service) ReconcileOrganization(ctx context.Context, id string) (*models.Organization, error) {
	var org *models.Organization
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		var err error
		org, err = tx.UpdateOrganization(ctx, id, func(o *models.Organization) error {
			scope := store.OrganizationScope(o.ID)
			if err := tx.ClaimAllCascades(ctx, scope, s.now()); err != nil {
				return err
			}
			totals, err := tx.DonationTotals(ctx, scope)
			if err != nil {
				return err
			}
			o.TotalDonationsReceived = totals.Count
			o.TotalAmountRaised = totals.Amount
			o.TotalDonorCount = totals.Donors
			return nil
		})
		if err != nil {
			return err
		}
		return enqueuePopularity(ctx, tx, org.EntityKind(), org.ID, "reconcile:"+tool.GenerateULID(s.now()))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile organization %s: %w", id, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("organization reconciled", "organization_id", id,
		"donations", org.TotalDonationsReceived, "amount", org.TotalAmountRaised.String(), "donors", org.TotalDonorCount)
	return org, nil
}

// ReconcileCampaign is ReconcileOrganization for a campaign.
func (s *Service) ReconcileCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign *models.Campaign
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		var err error
		campaign, err = tx.UpdateCampaign(ctx, id, func(c *models.Campaign) error {
			scope := store.CampaignScope(c.ID)
			if err := tx.ClaimAllCascades(ctx, scope, s.now()); err != nil {
				return err
			}
			totals, err := tx.DonationTotals(ctx, scope)
			if err != nil {
				return err
			}
			c.RaisedAmount = totals.Amount
			c.DonorCount = totals.Donors
			closeIfFunded(c)
			return nil
		})
		if err != nil {
			return err
		}
		return enqueuePopularity(ctx, tx, types.EntityKindCampaign, campaign.ID, "reconcile:"+tool.GenerateULID(s.now()))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile campaign %s: %w", id, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("campaign reconciled", "campaign_id", id,
		"raised", campaign.RaisedAmount.String(), "donors", campaign.DonorCount, "status", campaign.Status)
	return campaign, nil
}

// HandleCascadeOrganization is the scheduler handler for types.TaskCascadeOrganization.
func (s *Service) HandleCascadeOrganization(ctx context.Context, task *models.Task) error {
	args, err := scheduler.DecodeArgs[types.CascadeArgs](task)
	if err != nil {
		return err
	}
	_, err = s.ApplyToOrganization(ctx, args.DonationID)
	return err
}

// HandleCascadeCampaign is the scheduler handler for types.TaskCascadeCampaign.
func (s *Service) HandleCascadeCampaign(ctx context.Context, task *models.Task) error {
	args, err := scheduler.DecodeArgs[types.CascadeArgs](task)
	if err != nil {
		return err
	}
	_, err = s.ApplyToCampaign(ctx, args.DonationID)
	return err
}
