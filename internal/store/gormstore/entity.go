package gormstore

import (
	"context"
	"fmt"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return first[models.User](ctx, s.db, "id = ?", id)
}

func (s *Store) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return first[models.User](ctx, s.db, "external_id = ?", externalID)
}

func (s *Store) CreateDonor(ctx context.Context, d *models.Donor) error {
	return translate(s.db.WithContext(ctx).Create(d).Error)
}

func (s *Store) GetDonorByUserID(ctx context.Context, userID string) (*models.Donor, error) {
	return first[models.Donor](ctx, s.db, "user_id = ?", userID)
}

func (s *Store) CreateOrganization(ctx context.Context, o *models.Organization) error {
	return translate(s.db.WithContext(ctx).Create(o).Error)
}

func (s *Store) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	return first[models.Organization](ctx, s.db, "id = ?", id)
}

func (s *Store) UpdateOrganization(ctx context.Context, id string, fn func(o *models.Organization) error) (*models.Organization, error) {
	return update(ctx, s.db, id, fn)
}

func (s *Store) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	return first[models.Campaign](ctx, s.db, "id = ?", id)
}

func (s *Store) UpdateCampaign(ctx context.Context, id string, fn func(c *models.Campaign) error) (*models.Campaign, error) {
	return update(ctx, s.db, id, fn)
}

func (s *Store) CreatePaymentSession(ctx context.Context, ps *models.PaymentSession) error {
	ok, err := insertIgnore(ctx, s.db, ps)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("payment session %s: %w", ps.ExternalSessionID, store.ErrDuplicate)
	}
	return nil
}

func (s *Store) GetPaymentSessionByExternalID(ctx context.Context, externalSessionID string) (*models.PaymentSession, error) {
	return first[models.PaymentSession](ctx, s.db, "external_session_id = ?", externalSessionID)
}

func (s *Store) UpdatePaymentSession(ctx context.Context, id string, fn func(ps *models.PaymentSession) error) (*models.PaymentSession, error) {
	return update(ctx, s.db, id, fn)
}

func (s *Store) SaveNotificationLog(ctx context.Context, l *models.PaymentNotificationLog) error {
	return translate(s.db.WithContext(ctx).Save(l).Error)
}
