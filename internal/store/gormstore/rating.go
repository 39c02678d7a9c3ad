package gormstore

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/types"
)

// UpsertRating inserts or replaces the user's rating and reloads r from the
// stored row. On a resubmission the row keeps its original id, so the reload
// must not filter on the id the caller generated.
func (s *Store) UpsertRating(ctx context.Context, r *models.Rating) error {
	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_kind"}, {Name: "entity_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
	}).Create(r).Error
	if err != nil {
		return translate(err)
	}
	var stored models.Rating
	err = db.Where("entity_kind = ? AND entity_id = ? AND user_id = ?", r.EntityKind, r.EntityID, r.UserID).First(&stored).Error
	if err != nil {
		return translate(err)
	}
	*r = stored
	return nil
}

func (s *Store) GetRatingSummary(ctx context.Context, kind types.EntityKind, entityID string) (store.RatingSummary, error) {
	var sum store.RatingSummary
	err := s.db.WithContext(ctx).Model(&models.Rating{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		Scan(&sum).Error
	return sum, translate(err)
}

func (s *Store) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	ok, err := insertIgnore(ctx, s.db, r)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrDuplicate
	}
	return nil
}

func (s *Store) GetReceiptByDonation(ctx context.Context, donationID string) (*models.Receipt, error) {
	return first[models.Receipt](ctx, s.db, "donation_id = ?", donationID)
}

func (s *Store) UpdateReceipt(ctx context.Context, id string, fn func(r *models.Receipt) error) (*models.Receipt, error) {
	return update(ctx, s.db, id, fn)
}
