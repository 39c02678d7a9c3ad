package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/types"
)

func (s *Store) InsertDonation(ctx context.Context, d *models.Donation) error {
	ok, err := insertIgnore(ctx, s.db, d)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("donation for session %s: %w", lo.FromPtr(d.PaymentSessionID), store.ErrDuplicate)
	}
	return nil
}

func (s *Store) GetDonation(ctx context.Context, id string) (*models.Donation, error) {
	return first[models.Donation](ctx, s.db, "id = ?", id)
}

func (s *Store) FindDonationByPaymentSession(ctx context.Context, paymentSessionID string) (*models.Donation, error) {
	return first[models.Donation](ctx, s.db, "payment_session_id = ?", paymentSessionID)
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression
type filtersAnd struct{ filters []types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for i := range w.filters {
		exprs = append(exprs, &w.filters[i])
	}
	clause.And(exprs...).Build(builder)
}

func (s *Store) ListDonations(ctx context.Context, q store.DonationQuery) ([]*models.Donation, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Donation{})
	if q.DonorID != "" {
		tx = tx.Where("donor_id = ?", q.DonorID)
	}
	if q.OrganizationID != "" {
		tx = tx.Where("organization_id = ?", q.OrganizationID)
	}
	if q.CampaignID != "" {
		tx = tx.Where("campaign_id = ?", q.CampaignID)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}
	if len(q.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: q.Filters}}})
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count donations: %w", err)
	}

	var rows []*models.Donation
	page := tx.Order("created_at DESC, id DESC")
	if q.Limit > 0 {
		page = page.Limit(q.Limit)
	}
	if q.Offset > 0 {
		page = page.Offset(q.Offset)
	}
	if err := page.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list donations: %w", err)
	}
	return rows, total, nil
}

func (s *Store) SetDonationReceipt(ctx context.Context, donationID, receiptID string) error {
	res := s.db.WithContext(ctx).Model(&models.Donation{}).Where("id = ?", donationID).
		Updates(map[string]any{"receipt_id": receiptID, "receipt_generated": true})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("donation %s: %w", donationID, store.ErrNotFound)
	}
	return nil
}

func scoped(db *gorm.DB, scope store.Scope) *gorm.DB {
	db = db.Where("status = ?", types.DonationStatusCompleted)
	if scope.CampaignID != "" {
		return db.Where("campaign_id = ?", scope.CampaignID)
	}
	return db.Where("organization_id = ?", scope.OrganizationID)
}

func (s *Store) DonationTotals(ctx context.Context, scope store.Scope) (store.Totals, error) {
	var totals store.Totals
	err := scoped(s.db.WithContext(ctx).Model(&models.Donation{}), scope).
		Select("COUNT(*) AS count, "+
			"COALESCE(SUM(CASE WHEN kind = ? THEN amount ELSE 0 END), 0) AS amount, "+
			"COUNT(DISTINCT donor_id) AS donors", types.DonationKindMoney).
		Scan(&totals).Error
	if err != nil {
		return store.Totals{}, fmt.Errorf("failed to sum donations: %w", err)
	}
	return totals, nil
}

func (s *Store) ClaimCascade(ctx context.Context, donationID string, target types.CascadeTarget, at time.Time) (bool, error) {
	return insertIgnore(ctx, s.db, &models.CascadeApplication{DonationID: donationID, Target: target, AppliedAt: at})
}

func (s *Store) ClaimAllCascades(ctx context.Context, scope store.Scope, at time.Time) error {
	column, id := "organization_id", scope.OrganizationID
	if scope.CampaignID != "" {
		column, id = "campaign_id", scope.CampaignID
	}
	err := s.db.WithContext(ctx).Exec(
		"INSERT INTO cascade_application (donation_id, target, applied_at) "+
			"SELECT id, ?, ? FROM donation WHERE status = ? AND "+column+" = ? "+
			"ON CONFLICT DO NOTHING",
		scope.Target(), at, types.DonationStatusCompleted, id,
	).Error
	return translate(err)
}
