// Package store defines the record store every ledger component reads and
// writes through. Implementations guarantee atomic single-record
// read-modify-write (the Update* methods) and multi-record transactions via
// RunInTx.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/pkg/types"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrNoChange may be returned by an Update* closure to leave the record
	// untouched. The Update call then returns the current record and nil.
	ErrNoChange = errors.New("no change")
)

// DonationQuery filters donation listings. Zero values are ignored.
type DonationQuery struct {
	DonorID        string
	OrganizationID string
	CampaignID     string
	Statuses       []types.DonationStatus
	Filters        []types.CommonFilter
	Offset         int
	Limit          int
}

// Scope selects the donations that feed one aggregate: exactly one of
// OrganizationID and CampaignID is set.
type Scope struct {
	OrganizationID string
	CampaignID     string
}

func OrganizationScope(id string) Scope { return Scope{OrganizationID: id} }
func CampaignScope(id string) Scope     { return Scope{CampaignID: id} }

// Target is the cascade target the scope corresponds to.
func (s Scope) Target() types.CascadeTarget {
	if s.CampaignID != "" {
		return types.CascadeTargetCampaign
	}
	return types.CascadeTargetOrganization
}

// Totals is a full recomputation over the completed donations of a scope.
type Totals struct {
	Count  int64
	Amount decimal.Decimal
	Donors int64
}

type RatingSummary struct {
	Average float64
	Count   int64
}

// Store is the record store. Update* closures run while the record is
// locked; they may read through the same Store but must not call RunInTx.
type Store interface {
	// RunInTx runs fn in one transaction. The Store passed to fn is bound to
	// the transaction; any error returned by fn rolls it back.
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	CreateDonor(ctx context.Context, d *models.Donor) error
	GetDonorByUserID(ctx context.Context, userID string) (*models.Donor, error)

	CreateOrganization(ctx context.Context, o *models.Organization) error
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, id string, fn func(o *models.Organization) error) (*models.Organization, error)
	CreateCampaign(ctx context.Context, c *models.Campaign) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	UpdateCampaign(ctx context.Context, id string, fn func(c *models.Campaign) error) (*models.Campaign, error)

	// CreatePaymentSession returns ErrDuplicate when the external session id exists.
	CreatePaymentSession(ctx context.Context, s *models.PaymentSession) error
	GetPaymentSessionByExternalID(ctx context.Context, externalSessionID string) (*models.PaymentSession, error)
	UpdatePaymentSession(ctx context.Context, id string, fn func(s *models.PaymentSession) error) (*models.PaymentSession, error)

	// InsertDonation returns ErrDuplicate when a donation already references
	// the same payment session.
	InsertDonation(ctx context.Context, d *models.Donation) error
	GetDonation(ctx context.Context, id string) (*models.Donation, error)
	FindDonationByPaymentSession(ctx context.Context, paymentSessionID string) (*models.Donation, error)
	ListDonations(ctx context.Context, q DonationQuery) ([]*models.Donation, int64, error)
	SetDonationReceipt(ctx context.Context, donationID, receiptID string) error
	DonationTotals(ctx context.Context, scope Scope) (Totals, error)

	// ClaimCascade records that donationID's delta is applied to target.
	// It reports false when the claim already existed.
	ClaimCascade(ctx context.Context, donationID string, target types.CascadeTarget, at time.Time) (bool, error)
	// ClaimAllCascades claims every completed donation in scope.
	ClaimAllCascades(ctx context.Context, scope Scope, at time.Time) error

	UpsertRating(ctx context.Context, r *models.Rating) error
	GetRatingSummary(ctx context.Context, kind types.EntityKind, entityID string) (RatingSummary, error)

	// CreateReceipt returns ErrDuplicate when the donation already has one.
	CreateReceipt(ctx context.Context, r *models.Receipt) error
	GetReceiptByDonation(ctx context.Context, donationID string) (*models.Receipt, error)
	UpdateReceipt(ctx context.Context, id string, fn func(r *models.Receipt) error) (*models.Receipt, error)

	// EnqueueTasks inserts tasks, skipping any whose dedup key exists.
	EnqueueTasks(ctx context.Context, tasks ...*models.Task) error
	// ClaimTasks leases up to limit runnable tasks: pending ones due at now,
	// and running ones whose lease expired. Attempts is incremented.
	ClaimTasks(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Task, error)
	CompleteTask(ctx context.Context, id string) error
	RetryTask(ctx context.Context, id string, runAt time.Time, lastErr string) error
	FailTask(ctx context.Context, id string, lastErr string) error
	GetTask(ctx context.Context, id string) (*models.Task, error)

	SaveNotificationLog(ctx context.Context, l *models.PaymentNotificationLog) error
}
