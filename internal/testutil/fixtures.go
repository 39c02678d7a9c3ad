// Package testutil seeds the in-memory store with the accounts and
// recipients service tests need.
package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/tool"
	"github.com/fatflowers/giveledger/pkg/types"
)

// Donor creates a user with a donor profile and returns both.
func Donor(t testing.TB, st store.Store, name string) (*models.User, *models.Donor) {
	t.Helper()
	ctx := context.Background()
	u := &models.User{ID: tool.GenerateUUIDV7(), ExternalID: "idp|" + name, Email: name + "@example.org", Name: name, Role: "donor"}
	require.NoError(t, st.CreateUser(ctx, u))
	d := &models.Donor{ID: tool.GenerateUUIDV7(), UserID: u.ID, FullName: name}
	require.NoError(t, st.CreateDonor(ctx, d))
	return u, d
}

// UserWithoutProfile creates a user that has no donor profile.
func UserWithoutProfile(t testing.TB, st store.Store, name string) *models.User {
	t.Helper()
	u := &models.User{ID: tool.GenerateUUIDV7(), ExternalID: "idp|" + name, Name: name}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func Organization(t testing.TB, st store.Store, kind types.OrganizationKind, name string) *models.Organization {
	t.Helper()
	o := &models.Organization{ID: tool.GenerateUUIDV7(), Kind: kind, Name: name}
	require.NoError(t, st.CreateOrganization(context.Background(), o))
	return o
}

func Campaign(t testing.TB, st store.Store, org *models.Organization, title string, target int64) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		ID:             tool.GenerateUUIDV7(),
		OrganizationID: org.ID,
		Title:          title,
		TargetAmount:   decimal.NewFromInt(target),
		Currency:       "INR",
		Status:         types.CampaignStatusActive,
	}
	require.NoError(t, st.CreateCampaign(context.Background(), c))
	return c
}
