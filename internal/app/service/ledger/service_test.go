package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/internal/store/memstore"
	"github.com/fatflowers/giveledger/internal/testutil"
	"github.com/fatflowers/giveledger/pkg/tool"
	"github.com/fatflowers/giveledger/pkg/types"
)

func openSession(t *testing.T, st store.Store, userID string, kind types.TargetKind, targetID, ext string, amount int64, item *types.DonationKind) *models.PaymentSession {
	t.Helper()
	ps := &models.PaymentSession{
		ID:                tool.GenerateUUIDV7(),
		UserID:            userID,
		TargetKind:        kind,
		TargetID:          targetID,
		ExternalSessionID: ext,
		Amount:            decimal.NewFromInt(amount),
		Currency:          "INR",
		PaymentType:       types.PaymentTypeOneTime,
		ItemKind:          item,
		Status:            types.PaymentSessionStatusPending,
	}
	require.NoError(t, st.CreatePaymentSession(context.Background(), ps))
	return ps
}

func taskNames(st *memstore.Store) []string {
	return lo.Map(st.Tasks(), func(t models.Task, _ int) string { return t.Name })
}

func TestComplete_OrganizationDonation(t *testing.T) {
	st := memstore.New()
	svc := NewService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	user, donor := testutil.Donor(t, st, "asha")
	org := testutil.Organization(t, st, types.OrganizationKindNGO, "Seva")
	ps := openSession(t, st, user.ID, types.TargetKindOrganization, org.ID, "cs_1", 500, nil)

	res, err := svc.Complete(ctx, CompleteRequest{ExternalSessionID: "cs_1", ExternalPaymentRef: lo.ToPtr("pi_1")})
	require.NoError(t, err)
	require.False(t, res.AlreadyCompleted)

	d, err := st.GetDonation(ctx, res.DonationID)
	require.NoError(t, err)
	require.Equal(t, donor.ID, d.DonorID)
	require.Equal(t, org.ID, d.OrganizationID)
	require.Nil(t, d.CampaignID)
	require.Equal(t, types.DonationKindMoney, d.Kind)
	require.Equal(t, types.DonationStatusCompleted, d.Status)
	require.True(t, decimal.NewFromInt(500).Equal(*d.Amount))
	require.Equal(t, ps.ID, lo.FromPtr(d.PaymentSessionID))

	session, err := st.GetPaymentSessionByExternalID(ctx, "cs_1")
	require.NoError(t, err)
	require.Equal(t, types.PaymentSessionStatusCompleted, session.Status)
	require.NotNil(t, session.CompletedAt)
	require.Equal(t, "pi_1", lo.FromPtr(session.ExternalPaymentRef))

	require.ElementsMatch(t, []string{types.TaskCascadeOrganization, types.TaskReceiptGenerate}, taskNames(st))
}

func TestComplete_CampaignResolvesOwner(t *testing.T) {
	st := memstore.New()
	svc := NewService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	user, _ := testutil.Donor(t, st, "ravi")
	org := testutil.Organization(t, st, types.OrganizationKindHospital, "City Hospital")
	camp := testutil.Campaign(t, st, org, "Dialysis unit", 10000)
	openSession(t, st, user.ID, types.TargetKindCampaign, camp.ID, "cs_2", 10000, nil)

	res, err := svc.Complete(ctx, CompleteRequest{ExternalSessionID: "cs_2"})
	require.NoError(t, err)

	d, err := st.GetDonation(ctx, res.DonationID)
	require.NoError(t, err)
	require.Equal(t, org.ID, d.OrganizationID)
	require.Equal(t, camp.ID, lo.FromPtr(d.CampaignID))
	require.ElementsMatch(t, []string{types.TaskCascadeOrganization, types.TaskCascadeCampaign, types.TaskReceiptGenerate}, taskNames(st))
}

func TestComplete_PhysicalDonationHasNoAmount(t *testing.T) {
	st := memstore.New()
	svc := NewService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	user, _ := testutil.Donor(t, st, "meera")
	org := testutil.Organization(t, st, types.OrganizationKindNGO, "Food Bank")
	openSession(t, st, user.ID, types.TargetKindOrganization, org.ID, "cs_food", 0, lo.ToPtr(types.DonationKindFood))

	res, err := svc.Complete(ctx, CompleteRequest{ExternalSessionID: "cs_food"})
	require.NoError(t, err)
	d, err := st.GetDonation(ctx, res.DonationID)
	require.NoError(t, err)
	require.Equal(t, types.DonationKindFood, d.Kind)
	require.Nil(t, d.Amount)
	require.True(t, d.MonetaryAmount().IsZero())
}

func TestComplete_Idempotent(t *testing.T) {
	st := memstore.New()
	svc := NewService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	user, _ := testutil.Donor(t, st, "asha")
	org := testutil.Organization(t, st, types.OrganizationKindNGO, "Seva")
	openSession(t, st, user.ID, types.TargetKindOrganization, org.ID, "cs_1", 500, nil)

	first, err := svc.Complete(ctx, CompleteRequest{ExternalSessionID: "cs_1"})
	require.NoError(t, err)
	tasksBefore := len(st.Tasks())

	second, err := svc.Complete(ctx, CompleteRequest{ExternalSessionID: "cs_1"})
	require.NoError(t, err)
	require.True(t, second.AlreadyCompleted)
	require.Equal(t, first.DonationID, second.DonationID)
	require.Len(t, st.Tasks(), tasksBefore)

	_, total, err := st.ListDonations(ctx, store.DonationQuery{OrganizationID: org.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestComplete_RepairsCompletedSessionWithoutDonation(t *testing.T) {
	st := memstore.New()
	svc := NewService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	user, _ := testutil.Donor(t, st, "asha")
	org := testutil.Organization(t, st, types.OrganizationKindNGO, "Seva")
	ps := openSession(t, st, user.ID, types.TargetKindOrganization, org.ID, "cs_crash", 500, nil)
	// crash after the status flip, before the ledger write
	_, err := st.UpdatePaymentSession(ctx, ps.ID, func(s *models.PaymentSession) error {
		s.Status = types.PaymentSessionStatusCompleted
		return nil
	})
	require.NoError(t, err)

	res, err := svc.Complete(ctx, CompleteRequest{ExternalSessionID: "cs_crash"})
	require.NoError(t, err)
	require.False(t, res.AlreadyCompleted)
	d, err := st.FindDonationByPaymentSession(ctx, ps.ID)
	require.NoError(t, err)
	require.Equal(t, res.DonationID, d.ID)
}

func TestComplete_ConcurrentDeliveriesRecordOneDonation(t *testing.T) {
	st := memstore.New()
	svc := NewService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	user, _ := testutil.Donor(t, st, "asha")
	org := testutil.Organization(t, st, types.OrganizationKindNGO, "Seva")
	openSession(t, st, user.ID, types.TargetKindOrganization, org.ID, "cs_race", 500, nil)

	const n = 8
	results := make([]*CompleteResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Complete(ctx, CompleteRequest{ExternalSessionID: "cs_race"})
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, results[0].DonationID, results[i].DonationID)
		if !results[i].AlreadyCompleted {
			fresh++
		}
	}
	require.Equal(t, 1, fresh)

	_, total, err := st.ListDonations(ctx, store.DonationQuery{OrganizationID: org.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestComplete_Errors(t *testing.T) {
	st := memstore.New()
	svc := NewService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	_, err := svc.Complete(ctx, CompleteRequest{ExternalSessionID: "missing"})
	require.ErrorIs(t, err, ErrSessionNotFound)

	bare := testutil.UserWithoutProfile(t, st, "ghost")
	org := testutil.Organization(t, st, types.OrganizationKindNGO, "Seva")
	openSession(t, st, bare.ID, types.TargetKindOrganization, org.ID, "cs_noprofile", 100, nil)
	_, err = svc.Complete(ctx, CompleteRequest{ExternalSessionID: "cs_noprofile"})
	require.ErrorIs(t, err, ErrDonorProfileMissing)

	user, _ := testutil.Donor(t, st, "asha")
	openSession(t, st, user.ID, types.TargetKindCampaign, tool.GenerateUUIDV7(), "cs_nocampaign", 100, nil)
	_, err = svc.Complete(ctx, CompleteRequest{ExternalSessionID: "cs_nocampaign"})
	require.ErrorIs(t, err, ErrUnresolvableOwner)

	_, total, err := st.ListDonations(ctx, store.DonationQuery{})
	require.NoError(t, err)
	require.Zero(t, total)
}
