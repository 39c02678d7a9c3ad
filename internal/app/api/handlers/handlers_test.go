package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/app/service/aggregate"
	"github.com/fatflowers/giveledger/internal/app/service/ledger"
	nh "github.com/fatflowers/giveledger/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/giveledger/internal/app/service/notification_log"
	"github.com/fatflowers/giveledger/internal/app/service/paymentsession"
	"github.com/fatflowers/giveledger/internal/app/service/rating"
	"github.com/fatflowers/giveledger/internal/app/service/statistics"
	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store/memstore"
	"github.com/fatflowers/giveledger/internal/testutil"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/response"
	"github.com/fatflowers/giveledger/pkg/types"
)

type apiHarness struct {
	st     *memstore.Store
	engine *gin.Engine
	user   *models.User
	org    *models.Organization
}

// asUser stands in for AuthMiddleware.
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != "" {
			c.Set(logctx.KeyUserID, id)
		}
		c.Next()
	}
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	st := memstore.New()
	user, _ := testutil.Donor(t, st, "asha")
	org := testutil.Organization(t, st, types.OrganizationKindNGO, "Seva")

	notif := notificationlog.New(st, log)
	t.Cleanup(notif.Wait)
	sessions := paymentsession.NewService(st, log)
	hook := nh.NewNotificationHandler(notif, ledger.NewService(st, log), sessions, log)

	r := gin.New()
	v1 := r.Group("/api/v1")
	RegisterPaymentWebhookRoutes(v1.Group("/payment/webhook"), hook)
	RegisterPublicStatsRoutes(v1, st)
	authed := v1.Group("", asUser(user.ID))
	RegisterPaymentRoutes(authed.Group("/payment"), sessions)
	RegisterRatingRoutes(authed, rating.NewService(st, log))
	RegisterDonorRoutes(authed, st)
	RegisterAdminRoutes(v1.Group("/admin"), st, statistics.New(nil), aggregate.NewService(st, log))
	RegisterHealthRoutes(r)

	return &apiHarness{st: st, engine: r, user: user, org: org}
}

func call[T any](t *testing.T, r http.Handler, method, path string, body any) response.APIResponse[T] {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out response.APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (h *apiHarness) openSession(t *testing.T, ext string) {
	t.Helper()
	res := call[OpenSessionResponse](t, h.engine, http.MethodPost, "/api/v1/payment/session", map[string]any{
		"target_kind": "organization", "target_id": h.org.ID, "external_session_id": ext,
		"amount": "500", "currency": "INR", "payment_type": "one_time",
	})
	require.Equal(t, response.APIResponseCodeOK, res.Code, res.Message)
	require.NotEmpty(t, res.Data.SessionID)
}

func TestRegisterRoutes_RegistersEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	routes := map[string]bool{}
	for _, rt := range h.engine.Routes() {
		routes[rt.Method+" "+rt.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /api/v1/payment/webhook/confirm",
		"POST /api/v1/payment/webhook/failed",
		"POST /api/v1/payment/session",
		"POST /api/v1/rating",
		"GET /api/v1/donation/mine",
		"GET /api/v1/organization/:id/stats",
		"GET /api/v1/organization/:id/donations",
		"GET /api/v1/campaign/:id/stats",
		"POST /api/v1/admin/list_donations",
		"POST /api/v1/admin/get_donation_statistic",
		"POST /api/v1/admin/reconcile",
	} {
		require.True(t, routes[want], want)
	}
}

func TestOpenSession_ReopenReturnsSameID(t *testing.T) {
	h := newAPIHarness(t)
	body := map[string]any{
		"target_kind": "organization", "target_id": h.org.ID, "external_session_id": "cs_1",
		"amount": "500", "currency": "INR", "payment_type": "one_time",
	}
	first := call[OpenSessionResponse](t, h.engine, http.MethodPost, "/api/v1/payment/session", body)
	second := call[OpenSessionResponse](t, h.engine, http.MethodPost, "/api/v1/payment/session", body)
	require.Equal(t, first.Data.SessionID, second.Data.SessionID)

	body["payment_type"] = "weekly"
	body["external_session_id"] = "cs_2"
	bad := call[any](t, h.engine, http.MethodPost, "/api/v1/payment/session", body)
	require.Equal(t, response.APIResponseCodeBadRequest, bad.Code)
}

func TestWebhookConfirm_RecordsDonationOnce(t *testing.T) {
	h := newAPIHarness(t)
	h.openSession(t, "cs_1")

	event := map[string]any{"event": nh.EventPaymentSucceeded, "external_session_id": "cs_1", "payment_ref": "pi_1"}
	first := call[ledger.CompleteResult](t, h.engine, http.MethodPost, "/api/v1/payment/webhook/confirm", event)
	require.Equal(t, response.APIResponseCodeOK, first.Code, first.Message)
	require.False(t, first.Data.AlreadyCompleted)

	again := call[ledger.CompleteResult](t, h.engine, http.MethodPost, "/api/v1/payment/webhook/confirm", event)
	require.Equal(t, response.APIResponseCodeOK, again.Code)
	require.True(t, again.Data.AlreadyCompleted)
	require.Equal(t, first.Data.DonationID, again.Data.DonationID)

	mine := call[ListDonationsResponse](t, h.engine, http.MethodGet, "/api/v1/donation/mine", nil)
	require.Equal(t, response.APIResponseCodeOK, mine.Code)
	require.Equal(t, int64(1), mine.Data.Total)
	require.Equal(t, first.Data.DonationID, mine.Data.Items[0].ID)
	require.True(t, mine.Data.Items[0].Amount.Equal(decimal.NewFromInt(500)))

	received := call[ListDonationsResponse](t, h.engine, http.MethodGet, "/api/v1/organization/"+h.org.ID+"/donations", nil)
	require.Equal(t, int64(1), received.Data.Total)
}

func TestWebhookConfirm_Errors(t *testing.T) {
	h := newAPIHarness(t)
	unknown := call[any](t, h.engine, http.MethodPost, "/api/v1/payment/webhook/confirm",
		map[string]any{"event": nh.EventPaymentSucceeded, "external_session_id": "cs_missing"})
	require.Equal(t, response.APIResponseCodeNotFound, unknown.Code)

	wrongEvent := call[any](t, h.engine, http.MethodPost, "/api/v1/payment/webhook/confirm",
		map[string]any{"event": nh.EventPaymentFailed, "external_session_id": "cs_missing"})
	require.Equal(t, response.APIResponseCodeBadRequest, wrongEvent.Code)

	missingSession := call[any](t, h.engine, http.MethodPost, "/api/v1/payment/webhook/confirm",
		map[string]any{"event": nh.EventPaymentSucceeded})
	require.Equal(t, response.APIResponseCodeBadRequest, missingSession.Code)
}

func TestWebhookFailed_MarksPendingSession(t *testing.T) {
	h := newAPIHarness(t)
	h.openSession(t, "cs_1")

	res := call[models.PaymentSession](t, h.engine, http.MethodPost, "/api/v1/payment/webhook/failed",
		map[string]any{"event": nh.EventPaymentFailed, "external_session_id": "cs_1", "reason": "card_declined"})
	require.Equal(t, response.APIResponseCodeOK, res.Code, res.Message)
	require.Equal(t, types.PaymentSessionStatusFailed, res.Data.Status)

	unknown := call[any](t, h.engine, http.MethodPost, "/api/v1/payment/webhook/failed",
		map[string]any{"event": nh.EventPaymentFailed, "external_session_id": "cs_missing"})
	require.Equal(t, response.APIResponseCodeNotFound, unknown.Code)
}

func TestRate(t *testing.T) {
	h := newAPIHarness(t)
	ok := call[rating.RateResult](t, h.engine, http.MethodPost, "/api/v1/rating",
		map[string]any{"entity_kind": "ngo", "entity_id": h.org.ID, "rating": 4})
	require.Equal(t, response.APIResponseCodeOK, ok.Code, ok.Message)
	require.Equal(t, 4.0, ok.Data.AverageRating)
	require.Equal(t, int64(1), ok.Data.RatingCount)

	outOfRange := call[any](t, h.engine, http.MethodPost, "/api/v1/rating",
		map[string]any{"entity_kind": "ngo", "entity_id": h.org.ID, "rating": 6})
	require.Equal(t, response.APIResponseCodeBadRequest, outOfRange.Code)

	missing := call[any](t, h.engine, http.MethodPost, "/api/v1/rating",
		map[string]any{"entity_kind": "campaign", "entity_id": "00000000-0000-0000-0000-000000000000", "rating": 3})
	require.Equal(t, response.APIResponseCodeNotFound, missing.Code)

	stats := call[models.Organization](t, h.engine, http.MethodGet, "/api/v1/organization/"+h.org.ID+"/stats", nil)
	require.Equal(t, 4.0, stats.Data.AverageRating)
}

func TestStats_NotFound(t *testing.T) {
	h := newAPIHarness(t)
	require.Equal(t, response.APIResponseCodeNotFound,
		call[any](t, h.engine, http.MethodGet, "/api/v1/organization/nope/stats", nil).Code)
	require.Equal(t, response.APIResponseCodeNotFound,
		call[any](t, h.engine, http.MethodGet, "/api/v1/campaign/nope/stats", nil).Code)
}

func TestMyDonations_WithoutDonorProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := memstore.New()
	user := testutil.UserWithoutProfile(t, st, "ravi")
	r := gin.New()
	RegisterDonorRoutes(r.Group("", asUser(user.ID)), st)

	res := call[ListDonationsResponse](t, r, http.MethodGet, "/donation/mine", nil)
	require.Equal(t, response.APIResponseCodeOK, res.Code)
	require.Empty(t, res.Data.Items)

	anon := gin.New()
	RegisterDonorRoutes(anon.Group("", asUser("")), st)
	require.Equal(t, response.APIResponseCodeUnauthorized, call[any](t, anon, http.MethodGet, "/donation/mine", nil).Code)
}

func TestAdminListDonations_Filters(t *testing.T) {
	h := newAPIHarness(t)
	h.openSession(t, "cs_1")
	call[any](t, h.engine, http.MethodPost, "/api/v1/payment/webhook/confirm",
		map[string]any{"event": nh.EventPaymentSucceeded, "external_session_id": "cs_1"})

	res := call[ListDonationsResponse](t, h.engine, http.MethodPost, "/api/v1/admin/list_donations", map[string]any{
		"filters": []map[string]any{{"field": "organization_id", "operator": "eq", "values": []any{h.org.ID}}},
	})
	require.Equal(t, response.APIResponseCodeOK, res.Code, res.Message)
	require.Equal(t, int64(1), res.Data.Total)

	bad := call[any](t, h.engine, http.MethodPost, "/api/v1/admin/list_donations", map[string]any{
		"filters": []map[string]any{{"field": "amount; drop table donation", "operator": "eq", "values": []any{1}}},
	})
	require.Equal(t, response.APIResponseCodeBadRequest, bad.Code)
}

func TestAdminGetDonationStatistic_RejectsUnknownFilterField(t *testing.T) {
	h := newAPIHarness(t)
	res := call[any](t, h.engine, http.MethodPost, "/api/v1/admin/get_donation_statistic", map[string]any{
		"filters":    []map[string]any{{"field": "password", "operator": "eq", "values": []any{"x"}}},
		"data_items": []map[string]any{{"id": "daily_donation_count"}},
	})
	require.Equal(t, response.APIResponseCodeBadRequest, res.Code)
}

func TestAdminReconcile(t *testing.T) {
	h := newAPIHarness(t)
	h.openSession(t, "cs_1")
	call[any](t, h.engine, http.MethodPost, "/api/v1/payment/webhook/confirm",
		map[string]any{"event": nh.EventPaymentSucceeded, "external_session_id": "cs_1"})

	res := call[models.Organization](t, h.engine, http.MethodPost, "/api/v1/admin/reconcile",
		map[string]any{"target": "organization", "id": h.org.ID})
	require.Equal(t, response.APIResponseCodeOK, res.Code, res.Message)
	require.Equal(t, int64(1), res.Data.TotalDonationsReceived)
	require.True(t, res.Data.TotalAmountRaised.Equal(decimal.NewFromInt(500)))
	require.Equal(t, int64(1), res.Data.TotalDonorCount)

	require.Equal(t, response.APIResponseCodeBadRequest, call[any](t, h.engine, http.MethodPost, "/api/v1/admin/reconcile",
		map[string]any{"target": "donor", "id": h.org.ID}).Code)
	require.Equal(t, response.APIResponseCodeNotFound, call[any](t, h.engine, http.MethodPost, "/api/v1/admin/reconcile",
		map[string]any{"target": "campaign", "id": "nope"}).Code)
}
