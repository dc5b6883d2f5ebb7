package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	"github.com/actorhub/actorhub/internal/authorization"
	"github.com/actorhub/actorhub/internal/config"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	"github.com/actorhub/actorhub/internal/testutil/stack"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	env    *stack.Env
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := stack.New(t)
	enforcer, err := authorization.NewEnforcer(env.DB)
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	s := NewServer(ServerParams{
		Gin:             engine,
		Cfg:             config.Config{Environment: "test"},
		DB:              env.DB,
		Log:             zap.NewNop(),
		UserSvc:         env.Users,
		IdentitySvc:     env.Identities,
		ListingSvc:      env.Listings,
		ActorPackSvc:    env.ActorPacks,
		LicenseSvc:      env.Licenses,
		TransactionSvc:  env.Transactions,
		PayoutSvc:       env.Payouts,
		SubscriptionSvc: env.Subscriptions,
		UsageSvc:        env.Usage,
		APIKeySvc:       env.APIKeys,
		NotificationSvc: env.Notifications,
		AuditSvc:        env.Audit,
		AuthzSvc:        authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		Reconciler:      env.Reconciler,
		LiveUsageEvents: env.LiveEvents,
	})
	s.RegisterAPIRoutes()
	s.RegisterAdminRoutes()

	return &testServer{env: env, engine: engine}
}

// keyFor creates a user with role and returns a plaintext API key for them.
func (ts *testServer) keyFor(t *testing.T, role userdomain.Role) (userdomain.User, string) {
	t.Helper()
	ctx := context.Background()
	user, err := ts.env.Users.Create(ctx, nil, userdomain.CreateUserRequest{
		Email: uuid.NewString()[:8] + "@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return user, ts.keyForUser(t, user.ID)
}

func (ts *testServer) keyForUser(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	secret, err := ts.env.APIKeys.Create(context.Background(), apikeydomain.CreateRequest{
		UserID: userID,
		Name:   "test",
	})
	require.NoError(t, err)
	return secret.APIKey
}

func (ts *testServer) do(t *testing.T, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestAPIRequiresKey(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/users/me", "ak_not_a_real_key", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserResolvesKeyOwner(t *testing.T) {
	ts := newTestServer(t)
	user, key := ts.keyFor(t, userdomain.RoleUser)

	rec := ts.do(t, http.MethodGet, "/api/users/me", key, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data userdomain.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, user.ID, resp.Data.ID)
}

func TestDeletedUserKeyIsRejected(t *testing.T) {
	ts := newTestServer(t)
	user, key := ts.keyFor(t, userdomain.RoleUser)
	require.NoError(t, ts.env.Users.SoftDelete(context.Background(), nil, user.ID))

	rec := ts.do(t, http.MethodGet, "/api/users/me", key, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRolesGateRoutes(t *testing.T) {
	ts := newTestServer(t)
	buyer, buyerKey := ts.keyFor(t, userdomain.RoleUser)
	_, adminKey := ts.keyFor(t, userdomain.RoleAdmin)

	rec := ts.do(t, http.MethodPost, "/api/identities", buyerKey, identitydomain.CreateIdentityRequest{
		UserID:      buyer.ID,
		DisplayName: "Not a creator",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/admin/audit_logs", buyerKey, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/admin/audit_logs", adminKey, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsersCannotReadOtherUsers(t *testing.T) {
	ts := newTestServer(t)
	_, key := ts.keyFor(t, userdomain.RoleUser)
	other, _ := ts.keyFor(t, userdomain.RoleUser)

	rec := ts.do(t, http.MethodGet, "/api/users/"+other.ID.String(), key, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/users/"+other.ID.String(), key, map[string]any{"display_name": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUsersCannotPromoteThemselves(t *testing.T) {
	ts := newTestServer(t)
	user, key := ts.keyFor(t, userdomain.RoleUser)

	rec := ts.do(t, http.MethodPatch, "/api/users/"+user.ID.String(), key, map[string]any{"role": "ADMIN"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreatorCreatesIdentityForThemselves(t *testing.T) {
	ts := newTestServer(t)
	creator, key := ts.keyFor(t, userdomain.RoleCreator)
	other, _ := ts.keyFor(t, userdomain.RoleCreator)

	rec := ts.do(t, http.MethodPost, "/api/identities", key, identitydomain.CreateIdentityRequest{
		UserID:      other.ID,
		DisplayName: "Ada Voice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data identitydomain.Identity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, creator.ID, resp.Data.UserID)
}

func TestUsageValidationStatuses(t *testing.T) {
	ts := newTestServer(t)
	seed := ts.env.Seed(t, false)
	key := ts.keyForUser(t, seed.User.ID)

	rec := ts.do(t, http.MethodPost, "/api/usage", key, map[string]any{
		"action":           "verify",
		"identity_id":      seed.Identity.ID,
		"similarity_score": 3.5,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "similarity_score", payload.Errors[0].Field)

	rec = ts.do(t, http.MethodPost, "/api/usage", key, map[string]any{
		"action":      "teleport",
		"identity_id": seed.Identity.ID,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload = decodeError(t, rec)
	assert.Equal(t, "constraint_violation", payload.Type)
	assert.Equal(t, "chk_usage_logs_action", payload.Code)
}

func TestIllegalTransitionMapsTo409(t *testing.T) {
	ts := newTestServer(t)
	_, adminKey := ts.keyFor(t, userdomain.RoleAdmin)
	seed := ts.env.Seed(t, false)

	rec := ts.do(t, http.MethodPost, "/admin/identities/"+seed.Identity.ID.String()+"/status", adminKey, map[string]any{
		"status": "VERIFIED",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "illegal_transition", payload.Type)
}

func TestCommercialLicenseOnPersonalIdentityIsRefused(t *testing.T) {
	ts := newTestServer(t)
	_, key := ts.keyFor(t, userdomain.RoleUser)
	seed := ts.env.Seed(t, false)

	rec := ts.do(t, http.MethodPost, "/api/licenses", key, map[string]any{
		"identity_id":  seed.Identity.ID,
		"usage_type":   "COMMERCIAL",
		"license_type": "SINGLE_USE",
		"price_usd":    10,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "business_rule_violation", payload.Type)
}

func TestInvalidPathIDIsValidationError(t *testing.T) {
	ts := newTestServer(t)
	_, key := ts.keyFor(t, userdomain.RoleUser)

	rec := ts.do(t, http.MethodGet, "/api/identities/not-a-uuid", key, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_id", payload.Errors[0].Code)
}

func TestUnknownIdentityIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	_, key := ts.keyFor(t, userdomain.RoleUser)

	rec := ts.do(t, http.MethodGet, "/api/identities/"+uuid.NewString(), key, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminReconcileRoutes(t *testing.T) {
	ts := newTestServer(t)
	_, adminKey := ts.keyFor(t, userdomain.RoleAdmin)
	seed := ts.env.Seed(t, false)
	require.NoError(t, ts.env.DB.Exec(`UPDATE identities SET total_verifications = 5 WHERE id = ?`, seed.Identity.ID).Error)

	rec := ts.do(t, http.MethodGet, "/admin/reconcile/drift?counter="+config.CounterTotalVerifications, adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/admin/reconcile/"+config.CounterTotalVerifications+"/run", adminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			RowsCorrected int64 `json:"rows_corrected"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.RowsCorrected)

	rec = ts.do(t, http.MethodPost, "/admin/reconcile/total_hugs/run", adminKey, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsageIngestSkipsLimiterWhenDisabled(t *testing.T) {
	ts := newTestServer(t)
	seed := ts.env.Seed(t, false)
	key := ts.keyForUser(t, seed.User.ID)

	rec := ts.do(t, http.MethodPost, "/api/usage", key, map[string]any{
		"action":          "verify",
		"identity_id":     seed.Identity.ID,
		"matched":         true,
		"idempotency_key": "req-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	identity, err := ts.env.Identities.Get(context.Background(), seed.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), identity.TotalVerifications)
}
