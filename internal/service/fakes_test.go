package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/auth"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/cipher"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/event"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/notification"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/storage/memory"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
	pkgkafka "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/kafka"
)

// --- Clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// --- Users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
	order []uuid.UUID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]domain.User{}}
}

func (r *fakeUserRepo) conflict(u *domain.User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		switch {
		case other.Username == u.Username:
			return apperrors.AlreadyExists("user", "username", u.Username)
		case other.Email == u.Email:
			return apperrors.AlreadyExists("user", "email", u.Email)
		case other.Phone == u.Phone:
			return apperrors.AlreadyExists("user", "phone", u.Phone)
		}
	}
	return nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(u); err != nil {
		return err
	}
	r.users[u.ID] = *u
	r.order = append(r.order, u.ID)
	return nil
}

func (r *fakeUserRepo) find(match func(domain.User) bool, key string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user", key)
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.ID == id }, id.String())
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username }, username)
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email }, email)
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Phone == phone }, phone)
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperrors.NotFound("user", u.ID.String())
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperrors.NotFound("user", id.String())
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.User
	for _, id := range r.order {
		if u, ok := r.users[id]; ok {
			all = append(all, u)
		}
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *fakeUserRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) ListFrozenBefore(_ context.Context, cutoff time.Time) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.Status == domain.StatusInactive && u.FrozenAt != nil && !u.FrozenAt.After(cutoff) {
			out = append(out, u)
		}
	}
	return out, nil
}

// --- Refresh tokens ---

type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]domain.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[uuid.UUID]domain.RefreshToken{}}
}

func (r *fakeRefreshRepo) Create(_ context.Context, t *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.ID] = *t
	return nil
}

func (r *fakeRefreshRepo) GetByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, apperrors.NotFound("refresh token", "")
}

func (r *fakeRefreshRepo) GetLatestByUserID(_ context.Context, userID uuid.UUID) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.RefreshToken
	for _, t := range r.tokens {
		if t.UserID != userID {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			t := t
			latest = &t
		}
	}
	if latest == nil {
		return nil, apperrors.NotFound("refresh token", userID.String())
	}
	return latest, nil
}

func (r *fakeRefreshRepo) DeleteByID(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, id)
	return nil
}

func (r *fakeRefreshRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tokens {
		if !t.ExpiresAt.After(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeRefreshRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// --- Verification codes ---

type fakeCodeRepo struct {
	mu    sync.Mutex
	codes map[string]domain.VerificationCode
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{codes: map[string]domain.VerificationCode{}}
}

func (r *fakeCodeRepo) SaveIfAbsent(_ context.Context, c *domain.VerificationCode) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[c.Code]; ok {
		return false, nil
	}
	r.codes[c.Code] = *c
	return true, nil
}

func (r *fakeCodeRepo) Take(_ context.Context, code string) (*domain.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[code]
	if !ok {
		return nil, apperrors.NotFound("verification code", "")
	}
	delete(r.codes, code)
	return &c, nil
}

// --- Credentials ---

type fakeCredentialRepo struct {
	mu    sync.Mutex
	creds map[uuid.UUID]domain.Credential
}

func newFakeCredentialRepo() *fakeCredentialRepo {
	return &fakeCredentialRepo{creds: map[uuid.UUID]domain.Credential{}}
}

func (r *fakeCredentialRepo) Create(_ context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[c.ID] = *c
	return nil
}

func (r *fakeCredentialRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creds[id]
	if !ok {
		return nil, apperrors.NotFound("credential", id.String())
	}
	return &c, nil
}

func (r *fakeCredentialRepo) Update(_ context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[c.ID]; !ok {
		return apperrors.NotFound("credential", c.ID.String())
	}
	r.creds[c.ID] = *c
	return nil
}

func (r *fakeCredentialRepo) filter(keep func(domain.Credential) bool) []domain.Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Credential
	for _, c := range r.creds {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *fakeCredentialRepo) ListActiveByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Credential, error) {
	return r.filter(func(c domain.Credential) bool {
		return c.OwnerID == ownerID && c.Status == domain.StatusActive
	}), nil
}

func (r *fakeCredentialRepo) ListActiveByOwnerAndCategory(_ context.Context, ownerID uuid.UUID, category string) ([]domain.Credential, error) {
	return r.filter(func(c domain.Credential) bool {
		return c.OwnerID == ownerID && c.Status == domain.StatusActive && c.CategoryName == category
	}), nil
}

func (r *fakeCredentialRepo) ListFeatured(_ context.Context, ownerID uuid.UUID) ([]domain.Credential, error) {
	return r.filter(func(c domain.Credential) bool {
		return c.OwnerID == ownerID && c.Status == domain.StatusActive && c.IsFeatured
	}), nil
}

func (r *fakeCredentialRepo) ListMostViewed(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Credential, error) {
	out, _ := r.ListActiveByOwner(ctx, ownerID)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ViewCount > out[j].ViewCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeCredentialRepo) RecordView(_ context.Context, id, ownerID uuid.UUID, at time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creds[id]
	if !ok || c.OwnerID != ownerID || c.Status != domain.StatusActive {
		return "", apperrors.NotFound("credential", id.String())
	}
	c.ViewCount++
	c.LastUsed = &at
	r.creds[id] = c
	return c.Secret, nil
}

func (r *fakeCredentialRepo) SetFeatured(_ context.Context, id uuid.UUID, featured bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creds[id]
	if !ok {
		return apperrors.NotFound("credential", id.String())
	}
	c.IsFeatured = featured
	c.UpdatedAt = at
	r.creds[id] = c
	return nil
}

func (r *fakeCredentialRepo) LastUsedSince(_ context.Context, ownerID uuid.UUID, since time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, c := range r.filter(func(c domain.Credential) bool { return c.OwnerID == ownerID }) {
		if c.LastUsed != nil && c.LastUsed.After(since) {
			out = append(out, *c.LastUsed)
		}
	}
	return out, nil
}

func (r *fakeCredentialRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.creds)), nil
}

func (r *fakeCredentialRepo) CountByCategory(context.Context) ([]domain.CategoryCount, error) {
	counts := map[string]int64{}
	for _, c := range r.filter(func(c domain.Credential) bool { return c.Status == domain.StatusActive }) {
		counts[c.CategoryName]++
	}
	out := make([]domain.CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, domain.CategoryCount{Category: name, Count: n})
	}
	return out, nil
}

// --- Categories ---

type fakeCategoryRepo struct {
	mu   sync.Mutex
	cats map[uuid.UUID]domain.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{cats: map[uuid.UUID]domain.Category{}}
}

func (r *fakeCategoryRepo) nameTaken(c *domain.Category) bool {
	for id, other := range r.cats {
		if id != c.ID && other.Name == c.Name {
			return true
		}
	}
	return false
}

func (r *fakeCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(c) {
		return apperrors.AlreadyExists("category", "name", c.Name)
	}
	r.cats[c.ID] = *c
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cats[id]
	if !ok {
		return nil, apperrors.NotFound("category", id.String())
	}
	return &c, nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cats[c.ID]; !ok {
		return apperrors.NotFound("category", c.ID.String())
	}
	if r.nameTaken(c) {
		return apperrors.AlreadyExists("category", "name", c.Name)
	}
	r.cats[c.ID] = *c
	return nil
}

func (r *fakeCategoryRepo) List(context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Category, 0, len(r.cats))
	for _, c := range r.cats {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Category, error) {
	all, _ := r.List(ctx)
	var out []domain.Category
	for _, c := range all {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- Audit log ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, e *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAuditRepo) ListRecent(_ context.Context, limit int) ([]domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditLog
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- Mock email sender ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Name() string { return "mock" }

func (m *mockSender) Send(ctx context.Context, email *notification.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// --- Recording event publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// vault wires every service against in-memory fakes sharing one clock.
type vault struct {
	clock      *fakeClock
	users      *fakeUserRepo
	tokens     *fakeRefreshRepo
	codes      *fakeCodeRepo
	creds      *fakeCredentialRepo
	categories *fakeCategoryRepo
	audit      *fakeAuditRepo
	sender     *mockSender
	events     *recordingPublisher
	storage    *memory.Storage
	jwt        *auth.JWTManager

	refresh      *RefreshStore
	verification *VerificationService
	lifecycle    *LifecycleService
	auth         *AuthService
	credentials  *CredentialService
	categorySvc  *CategoryService
	userSvc      *UserService
	dashboard    *DashboardService
}

func newVault(t *testing.T) *vault {
	t.Helper()

	v := &vault{
		clock:      newFakeClock(),
		users:      newFakeUserRepo(),
		tokens:     newFakeRefreshRepo(),
		codes:      newFakeCodeRepo(),
		creds:      newFakeCredentialRepo(),
		categories: newFakeCategoryRepo(),
		audit:      &fakeAuditRepo{},
		sender:     &mockSender{},
		events:     &recordingPublisher{},
		storage:    memory.New("http://vault.test"),
	}
	logger := newTestLogger()
	opts := []Option{WithClock(v.clock.Now), WithBcryptCost(4)}

	key, err := cipher.GenerateKey()
	require.NoError(t, err)
	c, err := cipher.New(key, "")
	require.NoError(t, err)

	v.jwt = auth.NewJWTManager("test-secret-key-for-testing-only", 15*time.Minute, auth.WithClock(v.clock.Now))
	producer := event.NewProducer(v.events)
	renderer := notification.NewRenderer("no-reply@trinity.test", "support@trinity.test")

	v.refresh = NewRefreshStore(v.tokens, v.users, DefaultRefreshTTL, logger, opts...)
	v.verification = NewVerificationService(v.codes, v.sender, renderer, logger, opts...)
	v.lifecycle = NewLifecycleService(v.users, v.refresh, v.audit, producer, logger, opts...)
	v.auth = NewAuthService(v.users, v.jwt, v.refresh, v.verification, v.lifecycle, v.audit, producer, "TR", logger, opts...)
	v.credentials = NewCredentialService(v.creds, v.categories, c, v.audit, producer, logger, opts...)
	v.categorySvc = NewCategoryService(v.categories, v.audit, logger, opts...)
	v.userSvc = NewUserService(v.users, v.refresh, v.storage, v.audit, producer, "TR", logger, opts...)
	v.dashboard = NewDashboardService(v.users, v.creds, v.audit)
	return v
}

var phoneSeq = 0

// register creates an ACTIVE user whose password is password.
func (v *vault) register(t *testing.T, username, password string) *domain.User {
	t.Helper()
	phoneSeq++
	u, err := v.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
		Phone:    testPhone(phoneSeq),
	})
	require.NoError(t, err)
	return u
}

// testPhone returns distinct valid US numbers.
func testPhone(n int) string {
	return "+1201555" + []string{"0100", "0101", "0102", "0103", "0104", "0105", "0106", "0107", "0108", "0109"}[n%10]
}

func (v *vault) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := v.categorySvc.Create(context.Background(), "admin", CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}
