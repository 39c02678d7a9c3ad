package popularity

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/app/service/scheduler"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store/memstore"
	"github.com/fatflowers/giveledger/internal/testutil"
	"github.com/fatflowers/giveledger/pkg/config"
	"github.com/fatflowers/giveledger/pkg/types"
)

func TestRecompute_IdempotentAndTaskDriven(t *testing.T) {
	st := memstore.New()
	svc := NewService(st, zap.NewNop().Sugar())
	ctx := context.Background()

	org := testutil.Organization(t, st, types.OrganizationKindNGO, "Seva")
	_, err := st.UpdateOrganization(ctx, org.ID, func(o *models.Organization) error {
		o.TotalDonationsReceived = 1
		o.TotalAmountRaised = decimal.NewFromInt(500)
		return nil
	})
	require.NoError(t, err)

	first, err := svc.Recompute(ctx, types.EntityKindNGO, org.ID)
	require.NoError(t, err)
	require.Equal(t, 0.2, first)
	second, err := svc.Recompute(ctx, types.EntityKindNGO, org.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)

	camp := testutil.Campaign(t, st, org, "Beds", 1000)
	_, err = st.UpdateCampaign(ctx, camp.ID, func(c *models.Campaign) error {
		c.RaisedAmount = decimal.NewFromInt(500)
		return nil
	})
	require.NoError(t, err)

	sch := scheduler.New(st, zap.NewNop().Sugar(), &config.Config{})
	sch.Register(types.TaskPopularityRecompute, svc.HandleRecompute)
	task, err := NewRecomputeTask(types.EntityKindCampaign, camp.ID, "test")
	require.NoError(t, err)
	require.NoError(t, sch.Enqueue(ctx, task))
	_, err = sch.Drain(ctx)
	require.NoError(t, err)

	got, err := st.GetCampaign(ctx, camp.ID)
	require.NoError(t, err)
	require.Equal(t, 17.5, got.PopularityScore)

	_, err = svc.Recompute(ctx, "planet", "x")
	require.Error(t, err)
}
