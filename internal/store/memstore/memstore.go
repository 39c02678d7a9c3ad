// Package memstore is an in-process store.Store used by service tests and
// local tooling. Transactions are serialized and rolled back by restoring a
// snapshot; writes made outside a transaction while one is rolling back are
// lost, which is acceptable for its purpose.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/tool"
	"github.com/fatflowers/giveledger/pkg/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type cascadeKey struct {
	donationID string
	target     types.CascadeTarget
}

type ratingKey struct {
	kind     types.EntityKind
	entityID string
	userID   string
}

type data struct {
	users     map[string]models.User
	donors    map[string]models.Donor
	orgs      map[string]models.Organization
	campaigns map[string]models.Campaign
	sessions  map[string]models.PaymentSession
	donations map[string]models.Donation
	cascades  map[cascadeKey]models.CascadeApplication
	ratings   map[ratingKey]models.Rating
	receipts  map[string]models.Receipt
	tasks     map[string]models.Task
	logs      map[string]models.PaymentNotificationLog
}

func newData() *data {
	return &data{
		users:     map[string]models.User{},
		donors:    map[string]models.Donor{},
		orgs:      map[string]models.Organization{},
		campaigns: map[string]models.Campaign{},
		sessions:  map[string]models.PaymentSession{},
		donations: map[string]models.Donation{},
		cascades:  map[cascadeKey]models.CascadeApplication{},
		ratings:   map[ratingKey]models.Rating{},
		receipts:  map[string]models.Receipt{},
		tasks:     map[string]models.Task{},
		logs:      map[string]models.PaymentNotificationLog{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *data) clone() *data {
	return &data{
		users:     cloneMap(d.users),
		donors:    cloneMap(d.donors),
		orgs:      cloneMap(d.orgs),
		campaigns: cloneMap(d.campaigns),
		sessions:  cloneMap(d.sessions),
		donations: cloneMap(d.donations),
		cascades:  cloneMap(d.cascades),
		ratings:   cloneMap(d.ratings),
		receipts:  cloneMap(d.receipts),
		tasks:     cloneMap(d.tasks),
		logs:      cloneMap(d.logs),
	}
}

// Store implements store.Store in memory.
//
// Lock order is txMu, rowMu, mu. rowMu serializes Update* closures the way
// row locks would; mu guards the maps and is held only briefly.
type Store struct {
	txMu  sync.Mutex
	rowMu sync.Mutex
	mu    sync.RWMutex
	d     *data
}

var _ store.Store = (*Store)(nil)

func New() *Store { return &Store{d: newData()} }

type txStore struct{ *Store }

// RunInTx on a transaction-bound store joins the running transaction.
func (t *txStore) RunInTx(_ context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

func (s *Store) RunInTx(_ context.Context, fn func(tx store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.d.clone()
	s.mu.RUnlock()

	if err := fn(&txStore{s}); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func notFound(kind, key string) error {
	return fmt.Errorf("%s %s: %w", kind, key, store.ErrNotFound)
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// update runs fn on a copy of m[id] under rowMu and writes the copy back.
func update[T any](s *Store, kind, id string, m func(*data) map[string]T, touch func(*T), fn func(*T) error) (*T, error) {
	s.rowMu.Lock()
	defer s.rowMu.Unlock()

	s.mu.RLock()
	rec, ok := m(s.d)[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(kind, id)
	}
	if err := fn(&rec); err != nil {
		if errors.Is(err, store.ErrNoChange) {
			s.mu.RLock()
			cur := m(s.d)[id]
			s.mu.RUnlock()
			return &cur, nil
		}
		return nil, err
	}
	touch(&rec)

	s.mu.Lock()
	m(s.d)[id] = rec
	s.mu.Unlock()
	out := rec
	return &out, nil
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.d.users {
		if existing.ExternalID == u.ExternalID {
			return fmt.Errorf("user external_id %s: %w", u.ExternalID, store.ErrDuplicate)
		}
	}
	if u.ID == "" {
		u.ID = tool.GenerateUUIDV7()
	}
	stamp(&u.CreatedAt, &u.UpdatedAt)
	s.d.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.d.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.d.users {
		if u.ExternalID == externalID {
			return &u, nil
		}
	}
	return nil, notFound("user external_id", externalID)
}

func (s *Store) CreateDonor(_ context.Context, d *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.d.donors {
		if existing.UserID == d.UserID {
			return fmt.Errorf("donor for user %s: %w", d.UserID, store.ErrDuplicate)
		}
	}
	if d.ID == "" {
		d.ID = tool.GenerateUUIDV7()
	}
	stamp(&d.CreatedAt, &d.UpdatedAt)
	s.d.donors[d.ID] = *d
	return nil
}

func (s *Store) GetDonorByUserID(_ context.Context, userID string) (*models.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.d.donors {
		if d.UserID == userID {
			return &d, nil
		}
	}
	return nil, notFound("donor for user", userID)
}

func (s *Store) CreateOrganization(_ context.Context, o *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = tool.GenerateUUIDV7()
	}
	if _, ok := s.d.orgs[o.ID]; ok {
		return fmt.Errorf("organization %s: %w", o.ID, store.ErrDuplicate)
	}
	stamp(&o.CreatedAt, &o.UpdatedAt)
	s.d.orgs[o.ID] = *o
	return nil
}

func (s *Store) GetOrganization(_ context.Context, id string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.d.orgs[id]
	if !ok {
		return nil, notFound("organization", id)
	}
	return &o, nil
}

func (s *Store) UpdateOrganization(_ context.Context, id string, fn func(o *models.Organization) error) (*models.Organization, error) {
	return update(s, "organization", id,
		func(d *data) map[string]models.Organization { return d.orgs },
		func(o *models.Organization) { o.UpdatedAt = time.Now() }, fn)
}

func (s *Store) CreateCampaign(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = tool.GenerateUUIDV7()
	}
	if _, ok := s.d.campaigns[c.ID]; ok {
		return fmt.Errorf("campaign %s: %w", c.ID, store.ErrDuplicate)
	}
	if c.Status == "" {
		c.Status = types.CampaignStatusActive
	}
	stamp(&c.CreatedAt, &c.UpdatedAt)
	s.d.campaigns[c.ID] = *c
	return nil
}

func (s *Store) GetCampaign(_ context.Context, id string) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.d.campaigns[id]
	if !ok {
		return nil, notFound("campaign", id)
	}
	return &c, nil
}

func (s *Store) UpdateCampaign(_ context.Context, id string, fn func(c *models.Campaign) error) (*models.Campaign, error) {
	return update(s, "campaign", id,
		func(d *data) map[string]models.Campaign { return d.campaigns },
		func(c *models.Campaign) { c.UpdatedAt = time.Now() }, fn)
}

func (s *Store) CreatePaymentSession(_ context.Context, ps *models.PaymentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.d.sessions {
		if existing.ExternalSessionID == ps.ExternalSessionID {
			return fmt.Errorf("payment session %s: %w", ps.ExternalSessionID, store.ErrDuplicate)
		}
	}
	if ps.ID == "" {
		ps.ID = tool.GenerateUUIDV7()
	}
	stamp(&ps.CreatedAt, &ps.UpdatedAt)
	s.d.sessions[ps.ID] = *ps
	return nil
}

func (s *Store) GetPaymentSessionByExternalID(_ context.Context, externalSessionID string) (*models.PaymentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ps := range s.d.sessions {
		if ps.ExternalSessionID == externalSessionID {
			return &ps, nil
		}
	}
	return nil, notFound("payment session", externalSessionID)
}

func (s *Store) UpdatePaymentSession(_ context.Context, id string, fn func(ps *models.PaymentSession) error) (*models.PaymentSession, error) {
	return update(s, "payment session", id,
		func(d *data) map[string]models.PaymentSession { return d.sessions },
		func(ps *models.PaymentSession) { ps.UpdatedAt = time.Now() }, fn)
}

func (s *Store) InsertDonation(_ context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.PaymentSessionID != nil {
		for _, existing := range s.d.donations {
			if existing.PaymentSessionID != nil && *existing.PaymentSessionID == *d.PaymentSessionID {
				return fmt.Errorf("donation for session %s: %w", *d.PaymentSessionID, store.ErrDuplicate)
			}
		}
	}
	if d.ID == "" {
		d.ID = tool.GenerateUUIDV7()
	}
	if _, ok := s.d.donations[d.ID]; ok {
		return fmt.Errorf("donation %s: %w", d.ID, store.ErrDuplicate)
	}
	stamp(&d.CreatedAt, &d.UpdatedAt)
	s.d.donations[d.ID] = *d
	return nil
}

func (s *Store) GetDonation(_ context.Context, id string) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.d.donations[id]
	if !ok {
		return nil, notFound("donation", id)
	}
	return &d, nil
}

func (s *Store) FindDonationByPaymentSession(_ context.Context, paymentSessionID string) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.d.donations {
		if d.PaymentSessionID != nil && *d.PaymentSessionID == paymentSessionID {
			return &d, nil
		}
	}
	return nil, notFound("donation for session", paymentSessionID)
}

func (s *Store) ListDonations(_ context.Context, q store.DonationQuery) ([]*models.Donation, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Donation
	for _, d := range s.d.donations {
		if q.DonorID != "" && d.DonorID != q.DonorID {
			continue
		}
		if q.OrganizationID != "" && d.OrganizationID != q.OrganizationID {
			continue
		}
		if q.CampaignID != "" && lo.FromPtr(d.CampaignID) != q.CampaignID {
			continue
		}
		if len(q.Statuses) > 0 && !lo.Contains(q.Statuses, d.Status) {
			continue
		}
		ok, err := matchFilters(&d, q.Filters)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	total := int64(len(out))
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, total, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, total, nil
}

// matchFilters supports eq, not_eq and in over the string columns of a donation.
func matchFilters(d *models.Donation, filters []types.CommonFilter) (bool, error) {
	for _, f := range filters {
		var v string
		switch f.Field {
		case "status":
			v = string(d.Status)
		case "kind":
			v = string(d.Kind)
		case "donor_id":
			v = d.DonorID
		case "organization_id":
			v = d.OrganizationID
		case "campaign_id":
			v = lo.FromPtr(d.CampaignID)
		case "payment_session_id":
			v = lo.FromPtr(d.PaymentSessionID)
		default:
			return false, fmt.Errorf("memstore: unsupported filter field %q", f.Field)
		}
		values := lo.Map(f.Values, func(x any, _ int) string { return fmt.Sprint(x) })
		switch f.Operator {
		case types.CommonFilterOperatorEq:
			if len(values) == 0 || v != values[0] {
				return false, nil
			}
		case types.CommonFilterOperatorNotEq:
			if len(values) > 0 && v == values[0] {
				return false, nil
			}
		case types.CommonFilterOperatorIn:
			if !lo.Contains(values, v) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("memstore: unsupported filter operator %q", f.Operator)
		}
	}
	return true, nil
}

func (s *Store) SetDonationReceipt(_ context.Context, donationID, receiptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.d.donations[donationID]
	if !ok {
		return notFound("donation", donationID)
	}
	d.ReceiptID = &receiptID
	d.ReceiptGenerated = true
	d.UpdatedAt = time.Now()
	s.d.donations[donationID] = d
	return nil
}

func inScope(d *models.Donation, scope store.Scope) bool {
	if d.Status != types.DonationStatusCompleted {
		return false
	}
	if scope.CampaignID != "" {
		return lo.FromPtr(d.CampaignID) == scope.CampaignID
	}
	return d.OrganizationID == scope.OrganizationID
}

func (s *Store) DonationTotals(_ context.Context, scope store.Scope) (store.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := store.Totals{Amount: decimal.Zero}
	donors := map[string]struct{}{}
	for _, d := range s.d.donations {
		if !inScope(&d, scope) {
			continue
		}
		totals.Count++
		totals.Amount = totals.Amount.Add(d.MonetaryAmount())
		donors[d.DonorID] = struct{}{}
	}
	totals.Donors = int64(len(donors))
	return totals, nil
}

func (s *Store) ClaimCascade(_ context.Context, donationID string, target types.CascadeTarget, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cascadeKey{donationID: donationID, target: target}
	if _, ok := s.d.cascades[key]; ok {
		return false, nil
	}
	s.d.cascades[key] = models.CascadeApplication{DonationID: donationID, Target: target, AppliedAt: at}
	return true, nil
}

func (s *Store) ClaimAllCascades(_ context.Context, scope store.Scope, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := scope.Target()
	for _, d := range s.d.donations {
		if !inScope(&d, scope) {
			continue
		}
		key := cascadeKey{donationID: d.ID, target: target}
		if _, ok := s.d.cascades[key]; !ok {
			s.d.cascades[key] = models.CascadeApplication{DonationID: d.ID, Target: target, AppliedAt: at}
		}
	}
	return nil
}

func (s *Store) UpsertRating(_ context.Context, r *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ratingKey{kind: r.EntityKind, entityID: r.EntityID, userID: r.UserID}
	now := time.Now()
	if existing, ok := s.d.ratings[key]; ok {
		existing.Rating = r.Rating
		existing.Review = r.Review
		existing.UpdatedAt = now
		s.d.ratings[key] = existing
		*r = existing
		return nil
	}
	if r.ID == "" {
		r.ID = tool.GenerateUUIDV7()
	}
	r.CreatedAt, r.UpdatedAt = now, now
	s.d.ratings[key] = *r
	return nil
}

func (s *Store) GetRatingSummary(_ context.Context, kind types.EntityKind, entityID string) (store.RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum, n int64
	for k, r := range s.d.ratings {
		if k.kind == kind && k.entityID == entityID {
			sum += int64(r.Rating)
			n++
		}
	}
	if n == 0 {
		return store.RatingSummary{}, nil
	}
	return store.RatingSummary{Average: float64(sum) / float64(n), Count: n}, nil
}

func (s *Store) CreateReceipt(_ context.Context, r *models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.d.receipts {
		if existing.DonationID == r.DonationID {
			return fmt.Errorf("receipt for donation %s: %w", r.DonationID, store.ErrDuplicate)
		}
	}
	if r.ID == "" {
		r.ID = tool.GenerateUUIDV7()
	}
	stamp(&r.CreatedAt, &r.UpdatedAt)
	s.d.receipts[r.ID] = *r
	return nil
}

func (s *Store) GetReceiptByDonation(_ context.Context, donationID string) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.d.receipts {
		if r.DonationID == donationID {
			return &r, nil
		}
	}
	return nil, notFound("receipt for donation", donationID)
}

func (s *Store) UpdateReceipt(_ context.Context, id string, fn func(r *models.Receipt) error) (*models.Receipt, error) {
	return update(s, "receipt", id,
		func(d *data) map[string]models.Receipt { return d.receipts },
		func(r *models.Receipt) { r.UpdatedAt = time.Now() }, fn)
}

func (s *Store) EnqueueTasks(_ context.Context, tasks ...*models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := map[string]bool{}
	for _, t := range s.d.tasks {
		keys[t.DedupKey] = true
	}
	for _, t := range tasks {
		if keys[t.DedupKey] {
			continue
		}
		keys[t.DedupKey] = true
		if t.ID == "" {
			t.ID = tool.GenerateULID(time.Now())
		}
		stamp(&t.CreatedAt, &t.UpdatedAt)
		s.d.tasks[t.ID] = *t
	}
	return nil
}

func runnable(t *models.Task, now time.Time) bool {
	switch t.Status {
	case types.TaskStatusPending:
		return !t.RunAt.After(now)
	case types.TaskStatusRunning:
		return t.LockedUntil != nil && t.LockedUntil.Before(now)
	}
	return false
}

func (s *Store) ClaimTasks(_ context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []models.Task
	for _, t := range s.d.tasks {
		if runnable(&t, now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].RunAt.Equal(due[j].RunAt) {
			return due[i].RunAt.Before(due[j].RunAt)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	until := now.Add(lease)
	out := make([]*models.Task, 0, len(due))
	for _, t := range due {
		t.Status = types.TaskStatusRunning
		t.Attempts++
		t.LockedUntil = &until
		t.UpdatedAt = now
		s.d.tasks[t.ID] = t
		claimed := t
		out = append(out, &claimed)
	}
	return out, nil
}

func (s *Store) setTask(id string, fn func(t *models.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.d.tasks[id]
	if !ok {
		return notFound("task", id)
	}
	fn(&t)
	t.UpdatedAt = time.Now()
	s.d.tasks[id] = t
	return nil
}

func (s *Store) CompleteTask(_ context.Context, id string) error {
	return s.setTask(id, func(t *models.Task) {
		t.Status = types.TaskStatusDone
		t.LockedUntil = nil
	})
}

func (s *Store) RetryTask(_ context.Context, id string, runAt time.Time, lastErr string) error {
	return s.setTask(id, func(t *models.Task) {
		t.Status = types.TaskStatusPending
		t.RunAt = runAt
		t.LockedUntil = nil
		t.LastError = &lastErr
	})
}

func (s *Store) FailTask(_ context.Context, id string, lastErr string) error {
	return s.setTask(id, func(t *models.Task) {
		t.Status = types.TaskStatusFailed
		t.LockedUntil = nil
		t.LastError = &lastErr
	})
}

func (s *Store) GetTask(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.d.tasks[id]
	if !ok {
		return nil, notFound("task", id)
	}
	return &t, nil
}

// Tasks returns all stored tasks ordered by id. Test helper.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.Values(s.d.tasks)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) SaveNotificationLog(_ context.Context, l *models.PaymentNotificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = tool.GenerateUUIDV7()
	}
	stamp(&l.CreatedAt, &l.UpdatedAt)
	s.d.logs[l.ID] = *l
	return nil
}

// NotificationLogs returns all stored notification logs. Test helper.
func (s *Store) NotificationLogs() []models.PaymentNotificationLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Values(s.d.logs)
}
