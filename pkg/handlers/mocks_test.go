package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/apperrors"
	"github.com/winecollections/winecollections/pkg/audit"
	"github.com/winecollections/winecollections/pkg/auth"
	"github.com/winecollections/winecollections/pkg/models"
	"github.com/winecollections/winecollections/pkg/services"
	"github.com/winecollections/winecollections/pkg/services/workqueue"
)

const testSecret = "operator-secret"

// ============================================================================
// Test Harness
// ============================================================================

// testAuth bundles the real session and middleware stack used by handler tests.
type testAuth struct {
	sessions   *auth.SessionManager
	middleware *auth.Middleware
	auditor    *audit.SecurityAuditor
}

func newTestAuth(logger *zap.Logger) *testAuth {
	sm := auth.NewSessionManager("session-secret", auth.CookieSettings{})
	auditor := audit.NewSecurityAuditor(logger)
	return &testAuth{
		sessions:   sm,
		middleware: auth.NewMiddleware(sm, testSecret, auditor, logger),
		auditor:    auditor,
	}
}

// sessionCookie returns a login cookie for userID.
func (a *testAuth) sessionCookie(t *testing.T, userID int64) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, a.sessions.Login(rec, httptest.NewRequest(http.MethodPost, "/login/", nil), userID))
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

// ============================================================================
// Mock Implementations
// ============================================================================

// mockWineService implements services.WineService for handler tests.
type mockWineService struct {
	results      []models.WineResult
	err          error
	lastCriteria models.WineCriteria
}

func (m *mockWineService) Search(ctx context.Context, criteria models.WineCriteria) ([]models.WineResult, error) {
	m.lastCriteria = criteria
	return m.results, m.err
}

// mockRecommendationService implements services.RecommendationService for handler tests.
type mockRecommendationService struct {
	recs      []*models.WineRecommendation
	err       error
	nextID    int64
	csv       string
	imported  int
	lastOwner *int64
	lastUser  int64
	lastRec   *models.WineRecommendation
	deletedID int64
}

func (m *mockRecommendationService) List(ctx context.Context, userID *int64) ([]*models.WineRecommendation, error) {
	m.lastOwner = userID
	return m.recs, m.err
}

func (m *mockRecommendationService) Create(ctx context.Context, rec *models.WineRecommendation, userID *int64) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	rec.ID = m.nextID
	rec.UserID = userID
	m.lastOwner = userID
	m.lastRec = rec
	return nil
}

func (m *mockRecommendationService) Update(ctx context.Context, rec *models.WineRecommendation, userID int64) error {
	m.lastUser = userID
	m.lastRec = rec
	return m.err
}

func (m *mockRecommendationService) Delete(ctx context.Context, id, userID int64) error {
	m.lastUser = userID
	m.deletedID = id
	return m.err
}

func (m *mockRecommendationService) ImportCSV(ctx context.Context, r io.Reader, userID *int64) (int, error) {
	m.lastOwner = userID
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.csv = string(b)
	if m.err != nil {
		return 0, m.err
	}
	return m.imported, nil
}

// mockUserService implements services.UserService for handler tests.
type mockUserService struct {
	users map[string]*models.User // by email
	pass  map[string]string
	err   error
}

func newMockUserService() *mockUserService {
	return &mockUserService{users: map[string]*models.User{}, pass: map[string]string{}}
}

func (m *mockUserService) Register(ctx context.Context, email, password string, admin bool) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.users[email]; ok {
		return nil, apperrors.ErrConflict
	}
	u := &models.User{ID: int64(len(m.users) + 1), Email: email, Admin: admin}
	m.users[email] = u
	m.pass[email] = password
	return u, nil
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok || m.pass[email] != password {
		return nil, apperrors.ErrUnauthorized
	}
	return u, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// mockCrawlService implements services.CrawlService for handler tests.
type mockCrawlService struct {
	status    workqueue.TaskSnapshot
	startErr  error
	cancelErr error
	started   int
}

func (m *mockCrawlService) Start() (workqueue.TaskSnapshot, error) {
	if m.startErr != nil {
		return workqueue.TaskSnapshot{}, m.startErr
	}
	m.started++
	m.status = workqueue.TaskSnapshot{ID: "task-1", Name: "catalog crawl", Status: workqueue.TaskStatusRunning}
	return m.status, nil
}

func (m *mockCrawlService) Status() workqueue.TaskSnapshot {
	if m.status.Status == "" {
		return workqueue.TaskSnapshot{Status: workqueue.TaskStatusIdle}
	}
	return m.status
}

func (m *mockCrawlService) Cancel() error {
	return m.cancelErr
}

var (
	_ services.WineService           = (*mockWineService)(nil)
	_ services.RecommendationService = (*mockRecommendationService)(nil)
	_ services.UserService           = (*mockUserService)(nil)
	_ services.CrawlService          = (*mockCrawlService)(nil)
)
