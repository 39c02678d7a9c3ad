// Package receipt issues one receipt per donation and emails it to the
// donor. Nothing here can affect the donation itself. Delivery and archive
// failures are logged; an unsent email fails the scheduler task so it is
// retried against the already stored receipt.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/app/service/scheduler"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/platform/archive"
	"github.com/fatflowers/giveledger/internal/platform/mail"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/tool"
	"github.com/fatflowers/giveledger/pkg/types"
)

// ErrNotDelivered reports a stored receipt whose email has not gone out yet.
var ErrNotDelivered = errors.New("receipt email not delivered")

type Service struct {
	store    store.Store
	mailer   mail.Mailer
	archiver archive.Archiver
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewService(st store.Store, mailer mail.Mailer, archiver archive.Archiver, log *zap.SugaredLogger) *Service {
	return &Service{store: st, mailer: mailer, archiver: archiver, log: log, now: time.Now}
}

// Number formats a receipt number from the issue time and donation id.
func Number(issuedAt time.Time, donationID string) string {
	id := strings.ReplaceAll(donationID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return fmt.Sprintf("RCP-%s-%s", issuedAt.UTC().Format("20060102150405"), strings.ToUpper(id))
}

// Generate returns the donation's receipt, creating it on first call, and
// delivers whatever has not been delivered yet.
func (s *Service) Generate(ctx context.Context, donationID, userID string) (*models.Receipt, error) {
	lg := logctx.FromCtx(ctx, s.log).With("donation_id", donationID)

	d, err := s.store.GetDonation(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load donation: %w", err)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	donor, err := s.store.GetDonorByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load donor: %w", err)
	}

	r, err := s.store.GetReceiptByDonation(ctx, d.ID)
	switch {
	case err == nil:
		lg.Infow("reusing existing receipt", "receipt_number", r.ReceiptNumber)
		if d.ReceiptID == nil {
			if err := s.store.SetDonationReceipt(ctx, d.ID, r.ID); err != nil {
				return nil, fmt.Errorf("failed to link receipt: %w", err)
			}
		}
	case errors.Is(err, store.ErrNotFound):
		r, err = s.create(ctx, d, donor, user)
		if err != nil {
			return nil, err
		}
		lg.Infow("receipt generated", "receipt_number", r.ReceiptNumber)
	default:
		return nil, fmt.Errorf("failed to look up receipt: %w", err)
	}

	if r.EmailSent && (r.ArchiveKey != nil || !s.archiver.Enabled()) {
		return r, nil
	}
	body, err := render(r, d, donor, user)
	if err != nil {
		lg.Errorw("failed to render receipt", "err", err)
		return r, nil
	}
	r = s.deliver(ctx, lg, r, user, body)
	return r, nil
}

func (s *Service) create(ctx context.Context, d *models.Donation, donor *models.Donor, user *models.User) (*models.Receipt, error) {
	target, err := s.targetName(ctx, d)
	if err != nil {
		return nil, err
	}
	r := &models.Receipt{
		ID:            tool.GenerateUUIDV7(),
		DonationID:    d.ID,
		ReceiptNumber: Number(s.now(), d.ID),
		DonorID:       donor.ID,
		UserID:        user.ID,
		Amount:        d.MonetaryAmount(),
		Currency:      d.Currency,
		TargetName:    target,
	}
	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		if err := tx.CreateReceipt(ctx, r); err != nil {
			return err
		}
		return tx.SetDonationReceipt(ctx, d.ID, r.ID)
	})
	if errors.Is(err, store.ErrDuplicate) {
		existing, getErr := s.store.GetReceiptByDonation(ctx, d.ID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load concurrent receipt: %w", getErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}
	return r, nil
}

func (s *Service) targetName(ctx context.Context, d *models.Donation) (string, error) {
	if d.CampaignID != nil {
		c, err := s.store.GetCampaign(ctx, *d.CampaignID)
		if err != nil {
			return "", fmt.Errorf("failed to load campaign: %w", err)
		}
		return c.Title, nil
	}
	o, err := s.store.GetOrganization(ctx, d.OrganizationID)
	if err != nil {
		return "", fmt.Errorf("failed to load organization: %w", err)
	}
	return o.Name, nil
}

// deliver emails and archives the rendered receipt, recording each success.
func (s *Service) deliver(ctx context.Context, lg *zap.SugaredLogger, r *models.Receipt, user *models.User, body []byte) *models.Receipt {
	sent := r.EmailSent
	if !sent {
		err := s.mailer.Send(ctx, mail.Message{
			To:       user.Email,
			Subject:  "Your donation receipt " + r.ReceiptNumber,
			HTMLBody: string(body),
		})
		if err != nil {
			lg.Warnw("failed to email receipt", "receipt_number", r.ReceiptNumber, "err", err)
		} else {
			sent = true
		}
	}

	var key string
	if r.ArchiveKey == nil && s.archiver.Enabled() {
		var err error
		key, err = s.archiver.Put(ctx, r.ReceiptNumber+".html", body, "text/html; charset=utf-8")
		if err != nil {
			lg.Warnw("failed to archive receipt", "receipt_number", r.ReceiptNumber, "err", err)
		}
	}

	if sent == r.EmailSent && key == "" {
		return r
	}
	now := s.now()
	updated, err := s.store.UpdateReceipt(ctx, r.ID, func(rec *models.Receipt) error {
		if sent && !rec.EmailSent {
			rec.EmailSent = true
			rec.EmailSentAt = &now
		}
		if key != "" && rec.ArchiveKey == nil {
			rec.ArchiveKey = &key
		}
		return nil
	})
	if err != nil {
		lg.Errorw("failed to record receipt delivery", "receipt_id", r.ID, "err", err)
		return r
	}
	return updated
}

// HandleGenerate is the scheduler handler for types.TaskReceiptGenerate.
func (s *Service) HandleGenerate(ctx context.Context, task *models.Task) error {
	args, err := scheduler.DecodeArgs[types.ReceiptArgs](task)
	if err != nil {
		return err
	}
	r, err := s.Generate(ctx, args.DonationID, args.UserID)
	if err != nil {
		return err
	}
	if !r.EmailSent {
		return fmt.Errorf("receipt %s: %w", r.ReceiptNumber, ErrNotDelivered)
	}
	return nil
}
