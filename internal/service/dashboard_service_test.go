package service

import (
	"context"
	"testing"

	"solarshare/internal/featureflags"
	"solarshare/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboardService(w *world, flags string) *DashboardService {
	return NewDashboardService(DashboardDeps{
		Profiles:    fakeProfiles{w},
		Communities: fakeCommunities{w},
		Quotes:      fakeQuotes{w},
		Projects:    fakeProjects{w},
		Energy:      fakeEnergy{w},
		Flags:       featureflags.NewManager(flags),
	})
}

func TestDashboardService_UserDashboard(t *testing.T) {
	w := newWorld()
	admin := w.addProfile("admin", false)
	member := w.addProfile("member", false)
	c := w.addCommunity(admin, "SUN123", member)
	req := w.addRequest(c)
	svc := newDashboardService(w, "")
	ctx := context.Background()

	dash, err := svc.UserDashboard(ctx, member.ID)
	require.NoError(t, err)
	require.NotNil(t, dash.Membership)
	assert.Equal(t, models.CommunityRoleMember, dash.Membership.Role)
	assert.EqualValues(t, 2, dash.Membership.MemberCount)
	require.NotNil(t, dash.OpenQuoteRequestID)
	assert.Equal(t, req.ID, *dash.OpenQuoteRequestID)
	assert.Nil(t, dash.Project)
	assert.Zero(t, dash.EnergyEntryCount)

	provider := w.addProfile("BrightSun", true)
	q := w.addQuote(req, provider, "900000")
	_, err = fakeQuotes{w}.CloseVoting(ctx, closeParams(w, req, q))
	require.NoError(t, err)

	dash, err = svc.UserDashboard(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommunityRoleAdmin, dash.Membership.Role)
	assert.Nil(t, dash.OpenQuoteRequestID)
	require.NotNil(t, dash.Project)
	assert.Equal(t, "BrightSun", dash.Project.ProviderName)

	loner := w.addProfile("loner", false)
	dash, err = svc.UserDashboard(ctx, loner.ID)
	require.NoError(t, err)
	assert.Nil(t, dash.Membership)
	assert.Equal(t, "loner", dash.Profile.Name)
}

func TestDashboardService_ProviderDashboard(t *testing.T) {
	w := newWorld()
	admin := w.addProfile("admin", false)
	c := w.addCommunity(admin, "SUN123")
	req := w.addRequest(c)
	other := w.addCommunity(w.addProfile("other", false), "MOON42")
	otherReq := w.addRequest(other)
	provider := w.addProfile("BrightSun", true)
	w.addQuote(req, provider, "900000")
	w.energy = append(w.energy,
		models.EnergyConsumption{UserID: admin.ID, CommunityID: c.ID, UnitsConsumed: 400, BillAmount: decimal.NewFromInt(3000)},
		models.EnergyConsumption{UserID: admin.ID, CommunityID: c.ID, UnitsConsumed: 500, BillAmount: decimal.NewFromInt(3500)},
	)
	ctx := context.Background()

	dash, err := newDashboardService(w, "").ProviderDashboard(ctx, provider.ID)
	require.NoError(t, err)
	require.Len(t, dash.OpenRequests, 2)
	byID := map[uint]OpenRequestSummary{}
	for _, r := range dash.OpenRequests {
		byID[r.RequestID] = r
	}

	mine := byID[req.ID]
	assert.True(t, mine.HasQuoted)
	assert.Equal(t, "Maple Street", mine.CommunityName)
	assert.Equal(t, "560001", mine.ZipCode)
	assert.EqualValues(t, 1, mine.MemberCount)
	require.NotNil(t, mine.TotalConsumptionKWh)
	assert.Equal(t, 900.0, *mine.TotalConsumptionKWh)
	require.NotNil(t, mine.AverageBill)
	assert.Equal(t, "3250.00", mine.AverageBill.StringFixed(2))

	theirs := byID[otherReq.ID]
	assert.False(t, theirs.HasQuoted)
	require.NotNil(t, theirs.TotalConsumptionKWh)
	assert.Zero(t, *theirs.TotalConsumptionKWh)

	assert.Len(t, dash.Quotes, 1)
	assert.Empty(t, dash.ActiveProjects)
	assert.Empty(t, dash.CompletedProjects)

	noStats, err := newDashboardService(w, "provider_community_stats=off").ProviderDashboard(ctx, provider.ID)
	require.NoError(t, err)
	for _, r := range noStats.OpenRequests {
		assert.Nil(t, r.TotalConsumptionKWh)
		assert.Nil(t, r.AverageBill)
	}

	_, err = newDashboardService(w, "").ProviderDashboard(ctx, admin.ID)
	assertCode(t, err, models.CodeForbidden)
}
