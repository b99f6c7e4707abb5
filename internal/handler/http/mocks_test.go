package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/service"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/health"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/middleware"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/pagination"
)

// ============================================================================
// Mock Services
// ============================================================================

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, input service.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, input service.LoginInput) (*domain.TokenPair, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockAuthService) ForgotPassword(ctx context.Context, emailOrPhone string) error {
	return m.Called(ctx, emailOrPhone).Error(0)
}

func (m *mockAuthService) ResetPassword(ctx context.Context, code, newPassword string) error {
	return m.Called(ctx, code, newPassword).Error(0)
}

type mockVerificationService struct {
	mock.Mock
}

func (m *mockVerificationService) Issue(ctx context.Context, user *domain.User, purpose domain.Purpose) (string, error) {
	args := m.Called(ctx, user, purpose)
	return args.String(0), args.Error(1)
}

func (m *mockVerificationService) ConsumeFor(ctx context.Context, code string, userID uuid.UUID, purposes ...domain.Purpose) error {
	return m.Called(ctx, code, userID, purposes).Error(0)
}

type mockLifecycleService struct {
	mock.Mock
}

func (m *mockLifecycleService) Freeze(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Me(ctx context.Context, userID uuid.UUID) (*service.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Profile), args.Error(1)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input service.UpdateProfileInput) (*service.Profile, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Profile), args.Error(1)
}

func (m *mockUserService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, upload service.PictureUpload) (*service.Profile, error) {
	args := m.Called(ctx, userID, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Profile), args.Error(1)
}

func (m *mockUserService) ListUsers(ctx context.Context, page pagination.Params) (pagination.Result[domain.User], error) {
	args := m.Called(ctx, page)
	return args.Get(0).(pagination.Result[domain.User]), args.Error(1)
}

func (m *mockUserService) CreateUser(ctx context.Context, actor string, input service.AdminUserInput) (*domain.User, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserService) UpdateUser(ctx context.Context, actor string, id uuid.UUID, input service.AdminUserInput) (*domain.User, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserService) DeleteUser(ctx context.Context, actor string, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

type mockCredentialService struct {
	mock.Mock
}

func (m *mockCredentialService) credential(args mock.Arguments) (*domain.Credential, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credential), args.Error(1)
}

func (m *mockCredentialService) list(args mock.Arguments) ([]domain.Credential, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Credential), args.Error(1)
}

func (m *mockCredentialService) Create(ctx context.Context, caller *middleware.Identity, input service.CreateCredentialInput) (*domain.Credential, error) {
	return m.credential(m.Called(ctx, caller, input))
}

func (m *mockCredentialService) Update(ctx context.Context, caller *middleware.Identity, id uuid.UUID, input service.UpdateCredentialInput) (*domain.Credential, error) {
	return m.credential(m.Called(ctx, caller, id, input))
}

func (m *mockCredentialService) Delete(ctx context.Context, caller *middleware.Identity, id uuid.UUID) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *mockCredentialService) List(ctx context.Context, caller *middleware.Identity) ([]domain.Credential, error) {
	return m.list(m.Called(ctx, caller))
}

func (m *mockCredentialService) ListByCategory(ctx context.Context, caller *middleware.Identity, category string) ([]domain.Credential, error) {
	return m.list(m.Called(ctx, caller, category))
}

func (m *mockCredentialService) ToggleFeatured(ctx context.Context, caller *middleware.Identity, id uuid.UUID, featured bool) (*domain.Credential, error) {
	return m.credential(m.Called(ctx, caller, id, featured))
}

func (m *mockCredentialService) Featured(ctx context.Context, caller *middleware.Identity) ([]domain.Credential, error) {
	return m.list(m.Called(ctx, caller))
}

func (m *mockCredentialService) MostViewed(ctx context.Context, caller *middleware.Identity, limit int) ([]domain.Credential, error) {
	return m.list(m.Called(ctx, caller, limit))
}

func (m *mockCredentialService) Reveal(ctx context.Context, caller *middleware.Identity, id uuid.UUID) (string, error) {
	args := m.Called(ctx, caller, id)
	return args.String(0), args.Error(1)
}

func (m *mockCredentialService) ViewTrend(ctx context.Context, caller *middleware.Identity) (map[string]int64, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

type mockCategoryService struct {
	mock.Mock
}

func (m *mockCategoryService) ListActive(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoryService) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoryService) Create(ctx context.Context, actor string, input service.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryService) Update(ctx context.Context, actor string, id uuid.UUID, input service.CategoryInput) (*domain.Category, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryService) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

type mockDashboardService struct {
	mock.Mock
}

func (m *mockDashboardService) Build(ctx context.Context, caller *middleware.Identity) (*service.Dashboard, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Dashboard), args.Error(1)
}

// tokenTable authenticates fixed bearer tokens.
type tokenTable map[string]*middleware.Identity

func (t tokenTable) Authenticate(_ context.Context, token string) (*middleware.Identity, bool) {
	id, ok := t[token]
	return id, ok
}

// ============================================================================
// Test Helpers
// ============================================================================

var (
	aliceIdentity = &middleware.Identity{ID: uuid.New(), Username: "alice", Role: domain.RoleUser, Status: string(domain.StatusActive)}
	adminIdentity = &middleware.Identity{ID: uuid.New(), Username: "root", Role: domain.RoleAdmin, Status: string(domain.StatusActive)}
)

const (
	aliceToken = "alice-token"
	adminToken = "admin-token"
)

type testServer struct {
	handler      http.Handler
	auth         *mockAuthService
	verification *mockVerificationService
	lifecycle    *mockLifecycleService
	users        *mockUserService
	credentials  *mockCredentialService
	categories   *mockCategoryService
	dashboard    *mockDashboardService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	ts := &testServer{
		auth:         new(mockAuthService),
		verification: new(mockVerificationService),
		lifecycle:    new(mockLifecycleService),
		users:        new(mockUserService),
		credentials:  new(mockCredentialService),
		categories:   new(mockCategoryService),
		dashboard:    new(mockDashboardService),
	}

	reg := prometheus.NewRegistry()
	ts.handler = NewRouter(Services{
		Auth:          ts.auth,
		Authenticator: tokenTable{aliceToken: aliceIdentity, adminToken: adminIdentity},
		Verification:  ts.verification,
		Lifecycle:     ts.lifecycle,
		Users:         ts.users,
		Credentials:   ts.credentials,
		Categories:    ts.categories,
		Dashboard:     ts.dashboard,
	}, health.NewHandler(time.Second), middleware.NewHTTPMetrics(reg), reg, RouterConfig{}, logger)

	t.Cleanup(func() {
		ts.auth.AssertExpectations(t)
		ts.verification.AssertExpectations(t)
		ts.lifecycle.AssertExpectations(t)
		ts.users.AssertExpectations(t)
		ts.credentials.AssertExpectations(t)
		ts.categories.AssertExpectations(t)
		ts.dashboard.AssertExpectations(t)
	})
	return ts
}

// do sends a request with an optional JSON body and bearer token.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Error, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
