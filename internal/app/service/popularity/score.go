package popularity

import (
	"github.com/shopspring/decimal"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/pkg/types"
)

var (
	five           = decimal.NewFromInt(5)
	amountPerPoint = decimal.NewFromInt(100000)
)

func capAt(v decimal.Decimal, max int64) decimal.Decimal {
	return decimal.Min(v, decimal.NewFromInt(max))
}

func ratio(n int64, d int64) decimal.Decimal {
	return decimal.NewFromInt(n).Div(decimal.NewFromInt(d))
}

// ratingTerm is weight * avg/5.
func ratingTerm(weight int64, avg float64) decimal.Decimal {
	return decimal.NewFromInt(weight).Mul(decimal.NewFromFloat(avg)).Div(five)
}

func finish(sum decimal.Decimal) float64 {
	return sum.Round(1).InexactFloat64()
}

// ScoreHospital weighs rating 30, blood donations 40, organ transplants 20
// and rating volume 10.
func ScoreHospital(o *models.Organization) float64 {
	return finish(ratingTerm(30, o.AverageRating).
		Add(capAt(ratio(o.TotalBloodDonations, 10), 40)).
		Add(capAt(decimal.NewFromInt(o.TotalOrganTransplants*4), 20)).
		Add(capAt(ratio(o.RatingCount, 5), 10)))
}

// ScoreNGO weighs rating 25, donation count 30, amount raised 25,
// volunteers 15 and rating volume 5.
func ScoreNGO(o *models.Organization) float64 {
	return finish(ratingTerm(25, o.AverageRating).
		Add(capAt(ratio(o.TotalDonationsReceived, 5), 30)).
		Add(capAt(o.TotalAmountRaised.Div(amountPerPoint), 25)).
		Add(capAt(ratio(o.TotalVolunteers, 2), 15)).
		Add(capAt(ratio(o.RatingCount, 10), 5)))
}

// ScoreCampaign weighs rating 30, progress towards target 35, donors 25 and
// rating volume 10. A campaign without a positive target gets no progress
// points.
func ScoreCampaign(c *models.Campaign) float64 {
	progress := decimal.Zero
	if c.TargetAmount.IsPositive() {
		progress = decimal.NewFromInt(35).Mul(decimal.Min(c.RaisedAmount.Div(c.TargetAmount), decimal.NewFromInt(1)))
	}
	return finish(ratingTerm(30, c.AverageRating).
		Add(progress).
		Add(capAt(ratio(c.DonorCount, 2), 25)).
		Add(capAt(ratio(c.RatingCount, 5), 10)))
}

// ScoreOrganization dispatches on the organization kind.
func ScoreOrganization(o *models.Organization) float64 {
	if o.Kind == types.OrganizationKindHospital {
		return ScoreHospital(o)
	}
	return ScoreNGO(o)
}
