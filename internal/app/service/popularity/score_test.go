package popularity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/pkg/types"
)

func TestScoreHospital(t *testing.T) {
	o := &models.Organization{Kind: types.OrganizationKindHospital}
	require.Equal(t, 0.0, ScoreHospital(o))

	// 27 + 12.3 + 8 + 2.4
	o.AverageRating = 4.5
	o.TotalBloodDonations = 123
	o.TotalOrganTransplants = 2
	o.RatingCount = 12
	require.Equal(t, 49.7, ScoreHospital(o))

	// every term at its cap
	o.AverageRating, o.TotalBloodDonations, o.TotalOrganTransplants, o.RatingCount = 5, 10000, 100, 1000
	require.Equal(t, 100.0, ScoreHospital(o))
}

func TestScoreNGO(t *testing.T) {
	// 15 + 0.2 + 0.005 + 1.5 + 0.1
	o := &models.Organization{
		Kind:                   types.OrganizationKindNGO,
		AverageRating:          3,
		TotalDonationsReceived: 1,
		TotalAmountRaised:      decimal.NewFromInt(500),
		TotalVolunteers:        3,
		RatingCount:            1,
	}
	require.Equal(t, 16.8, ScoreNGO(o))
	require.Equal(t, ScoreNGO(o), ScoreOrganization(o))

	o.AverageRating, o.TotalDonationsReceived, o.TotalVolunteers, o.RatingCount = 5, 1000, 1000, 1000
	o.TotalAmountRaised = decimal.NewFromInt(100000000)
	require.Equal(t, 100.0, ScoreNGO(o))
}

func TestScoreCampaign(t *testing.T) {
	c := &models.Campaign{TargetAmount: decimal.NewFromInt(10000), RaisedAmount: decimal.NewFromInt(10000), DonorCount: 3}
	// 35 + 1.5
	require.Equal(t, 36.5, ScoreCampaign(c))

	c.RaisedAmount = decimal.NewFromInt(25000)
	require.Equal(t, 36.5, ScoreCampaign(c))

	noTarget := &models.Campaign{RaisedAmount: decimal.NewFromInt(100), DonorCount: 1}
	require.Equal(t, 0.5, ScoreCampaign(noTarget))
}

// Raising any single input never lowers the score.
func TestScoresAreMonotonic(t *testing.T) {
	baseOrg := func(kind types.OrganizationKind) models.Organization {
		return models.Organization{
			Kind: kind, AverageRating: 2.5, TotalDonationsReceived: 7, TotalAmountRaised: decimal.NewFromInt(12345),
			TotalVolunteers: 5, TotalBloodDonations: 33, TotalOrganTransplants: 1, RatingCount: 9,
		}
	}
	orgBumps := []func(o *models.Organization){
		func(o *models.Organization) { o.AverageRating += 0.5 },
		func(o *models.Organization) { o.TotalDonationsReceived++ },
		func(o *models.Organization) { o.TotalAmountRaised = o.TotalAmountRaised.Add(decimal.NewFromInt(5000)) },
		func(o *models.Organization) { o.TotalVolunteers++ },
		func(o *models.Organization) { o.TotalBloodDonations += 10 },
		func(o *models.Organization) { o.TotalOrganTransplants++ },
		func(o *models.Organization) { o.RatingCount += 3 },
	}
	for _, kind := range []types.OrganizationKind{types.OrganizationKindHospital, types.OrganizationKindNGO} {
		for i, bump := range orgBumps {
			before := baseOrg(kind)
			after := baseOrg(kind)
			bump(&after)
			require.GreaterOrEqual(t, ScoreOrganization(&after), ScoreOrganization(&before), "kind %s bump %d", kind, i)
		}
	}

	baseCampaign := func() models.Campaign {
		return models.Campaign{
			AverageRating: 3.2, TargetAmount: decimal.NewFromInt(10000), RaisedAmount: decimal.NewFromInt(4000),
			DonorCount: 4, RatingCount: 2,
		}
	}
	campaignBumps := []func(c *models.Campaign){
		func(c *models.Campaign) { c.AverageRating += 1 },
		func(c *models.Campaign) { c.RaisedAmount = c.RaisedAmount.Add(decimal.NewFromInt(3000)) },
		func(c *models.Campaign) { c.DonorCount += 2 },
		func(c *models.Campaign) { c.RatingCount += 5 },
	}
	for i, bump := range campaignBumps {
		before := baseCampaign()
		after := baseCampaign()
		bump(&after)
		require.GreaterOrEqual(t, ScoreCampaign(&after), ScoreCampaign(&before), "bump %d", i)
	}
}
