package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRunInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.InsertDonation(ctx, &models.Donation{ID: "d1", Status: types.DonationStatusCompleted}))
		require.NoError(t, tx.EnqueueTasks(ctx, &models.Task{Name: "x", DedupKey: "k1", Status: types.TaskStatusPending}))
		// nested joins the outer transaction
		return tx.RunInTx(ctx, func(inner store.Store) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetDonation(ctx, "d1")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Empty(t, s.Tasks())
}

func TestInsertDonation_UniquePerSession(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.InsertDonation(ctx, &models.Donation{PaymentSessionID: lo.ToPtr("ps1")}))
	err := s.InsertDonation(ctx, &models.Donation{PaymentSessionID: lo.ToPtr("ps1")})
	require.ErrorIs(t, err, store.ErrDuplicate)

	// donations without a session are not constrained
	require.NoError(t, s.InsertDonation(ctx, &models.Donation{}))
	require.NoError(t, s.InsertDonation(ctx, &models.Donation{}))
}

func TestUpdate_NoChangeLeavesRecord(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateOrganization(ctx, &models.Organization{ID: "o1", Name: "before"}))

	o, err := s.UpdateOrganization(ctx, "o1", func(o *models.Organization) error {
		return store.ErrNoChange
	})
	require.NoError(t, err)
	require.Equal(t, "before", o.Name)

	_, err = s.UpdateOrganization(ctx, "missing", func(o *models.Organization) error { return nil })
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestClaimCascade_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	ok, err := s.ClaimCascade(ctx, "d1", types.CascadeTargetOrganization, now)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.ClaimCascade(ctx, "d1", types.CascadeTargetOrganization, now)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = s.ClaimCascade(ctx, "d1", types.CascadeTargetCampaign, now)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDonationTotals_CountsCompletedOnly(t *testing.T) {
	ctx := context.Background()
	s := New()
	add := func(donor string, amount int64, kind types.DonationKind, status types.DonationStatus) {
		require.NoError(t, s.InsertDonation(ctx, &models.Donation{
			DonorID: donor, OrganizationID: "o1", Kind: kind, Status: status,
			Amount: lo.ToPtr(decimal.NewFromInt(amount)),
		}))
	}
	add("a", 100, types.DonationKindMoney, types.DonationStatusCompleted)
	add("a", 50, types.DonationKindMoney, types.DonationStatusCompleted)
	add("b", 999, types.DonationKindFood, types.DonationStatusCompleted)
	add("c", 70, types.DonationKindMoney, types.DonationStatusCancelled)

	totals, err := s.DonationTotals(ctx, store.OrganizationScope("o1"))
	require.NoError(t, err)
	require.Equal(t, int64(3), totals.Count)
	require.True(t, totals.Amount.Equal(decimal.NewFromInt(150)))
	require.Equal(t, int64(2), totals.Donors)
}

func TestClaimTasks_LeaseAndDedup(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	require.NoError(t, s.EnqueueTasks(ctx,
		&models.Task{ID: "t1", DedupKey: "k1", Status: types.TaskStatusPending, RunAt: now},
		&models.Task{ID: "t2", DedupKey: "k1", Status: types.TaskStatusPending, RunAt: now},
		&models.Task{ID: "t3", DedupKey: "k3", Status: types.TaskStatusPending, RunAt: now.Add(time.Hour)},
	))
	require.Len(t, s.Tasks(), 2)

	claimed, err := s.ClaimTasks(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, "t1", claimed[0].ID)
	require.Equal(t, 1, claimed[0].Attempts)

	again, err := s.ClaimTasks(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Empty(t, again)

	// lease expiry makes the running task claimable again
	expired, err := s.ClaimTasks(ctx, now.Add(2*time.Minute), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, 2, expired[0].Attempts)

	require.NoError(t, s.CompleteTask(ctx, "t1"))
	task, err := s.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, types.TaskStatusDone, task.Status)
}

func TestUpsertRating_ReplacesSameUser(t *testing.T) {
	ctx := context.Background()
	s := New()
	r1 := &models.Rating{EntityKind: types.EntityKindNGO, EntityID: "o1", UserID: "u1", Rating: 5}
	require.NoError(t, s.UpsertRating(ctx, r1))
	r2 := &models.Rating{EntityKind: types.EntityKindNGO, EntityID: "o1", UserID: "u1", Rating: 3}
	require.NoError(t, s.UpsertRating(ctx, r2))
	require.Equal(t, r1.ID, r2.ID)

	sum, err := s.GetRatingSummary(ctx, types.EntityKindNGO, "o1")
	require.NoError(t, err)
	require.Equal(t, int64(1), sum.Count)
	require.InDelta(t, 3.0, sum.Average, 1e-9)
}

func TestListDonations_FiltersAndPaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()
	for i, st := range []types.DonationStatus{types.DonationStatusCompleted, types.DonationStatusCompleted, types.DonationStatusCancelled} {
		require.NoError(t, s.InsertDonation(ctx, &models.Donation{
			DonorID: "u", OrganizationID: "o1", Status: st, Kind: types.DonationKindMoney,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	list, total, err := s.ListDonations(ctx, store.DonationQuery{
		OrganizationID: "o1",
		Filters:        []types.CommonFilter{{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"completed"}}},
		Limit:          1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, list, 1)
	require.True(t, list[0].CreatedAt.Equal(base.Add(time.Second)))

	_, _, err = s.ListDonations(ctx, store.DonationQuery{
		Filters: []types.CommonFilter{{Field: "amount", Operator: types.CommonFilterOperatorGt, Values: []any{1}}},
	})
	require.Error(t, err)
}
