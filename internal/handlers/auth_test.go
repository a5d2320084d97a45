package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/equiptrack/defect-registry/internal/handlers"
	"github.com/equiptrack/defect-registry/internal/models"
	"github.com/equiptrack/defect-registry/internal/routes"
	"github.com/equiptrack/defect-registry/internal/services"
)

type stubUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]*models.User)}
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return services.ErrDuplicateEmail
	}
	copied := *user
	s.users[user.Email] = &copied
	return nil
}

func (s *stubUserStore) SetLastLogin(ctx context.Context, email string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return services.ErrUserNotFound
	}
	user.LastLogin = &t
	return nil
}

func (s *stubUserStore) SetLastLogout(ctx context.Context, email string, t time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	user.LastLogout = &t
	copied := *user
	return &copied, nil
}

func (s *stubUserStore) delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, email)
}

type stubDefectStore struct {
	mu      sync.Mutex
	reports []models.DefectReport
}

func (s *stubDefectStore) Insert(ctx context.Context, report *models.DefectReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, *report)
	return nil
}

func (s *stubDefectStore) List(ctx context.Context) ([]models.DefectReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DefectReport, len(s.reports))
	copy(out, s.reports)
	return out, nil
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
	users  *stubUserStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	staticDir := t.TempDir()
	err := os.WriteFile(filepath.Join(staticDir, "after_login.html"), []byte("<h1>Welcome back</h1>"), 0o644)
	require.NoError(t, err)

	users := newStubUserStore()
	sessions := services.NewMemorySessionStore(time.Hour)

	authHandler := handlers.NewAuthHandler(users, sessions, time.Hour, staticDir, false)
	defectHandler := handlers.NewDefectHandler(&stubDefectStore{})

	r := chi.NewRouter()
	routes.SetupRoutes(r, authHandler, defectHandler, sessions, staticDir)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{server: server, client: client, users: users}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	res, err := e.client.Post(e.server.URL+path, "application/json", &buf)
	require.NoError(t, err)
	return res
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	res, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func (e *testEnv) register(t *testing.T, username, email, password string) {
	t.Helper()
	res := e.postJSON(t, "/register", map[string]string{"username": username, "email": email, "password": password})
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)
}

func (e *testEnv) login(t *testing.T, email, password string) {
	t.Helper()
	res := e.postJSON(t, "/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decodeBody(t, res)
	require.Equal(t, true, body["success"])
	require.Equal(t, "after_login.html", body["redirect"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "alice", "a@x.com", "pw123")

	res := env.postJSON(t, "/register", map[string]string{"username": "alice2", "email": "a@x.com", "password": "other"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	body := decodeBody(t, res)
	require.Equal(t, "User already exists", body["message"])
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "alice", "a@x.com", "pw123")

	user := env.users.users["a@x.com"]
	require.NotNil(t, user)
	require.NotEqual(t, "pw123", user.Password)
	require.NotContains(t, user.Password, "pw123")
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")

	res := env.postJSON(t, "/login", map[string]string{"email": "a@x.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	body := decodeBody(t, res)
	require.Equal(t, "Invalid email or password", body["message"])
	require.Empty(t, res.Cookies(), "failed login must not issue a session cookie")

	// Unknown email gets the same message
	res = env.postJSON(t, "/login", map[string]string{"email": "nobody@x.com", "password": "pw123"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	body = decodeBody(t, res)
	require.Equal(t, "Invalid email or password", body["message"])
}

func TestLoginUpdatesLastLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")
	require.Nil(t, env.users.users["a@x.com"].LastLogin)

	env.login(t, "a@x.com", "pw123")
	require.NotNil(t, env.users.users["a@x.com"].LastLogin)
}

func TestCheckSession(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")

	res := env.get(t, "/check-session")
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decodeBody(t, res)
	require.Equal(t, false, body["loggedIn"])

	env.login(t, "a@x.com", "pw123")

	res = env.get(t, "/check-session")
	require.Equal(t, http.StatusOK, res.StatusCode)
	body = decodeBody(t, res)
	require.Equal(t, true, body["loggedIn"])
	require.Equal(t, "alice", body["username"])
}

func TestAfterLoginGuard(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")

	res := env.get(t, "/after_login")
	res.Body.Close()
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.Equal(t, "/index.html", res.Header.Get("Location"))

	env.login(t, "a@x.com", "pw123")

	res = env.get(t, "/after_login")
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()
}

func TestLogoutTwice(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")
	env.login(t, "a@x.com", "pw123")

	res := env.postJSON(t, "/logout", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decodeBody(t, res)
	require.Equal(t, true, body["success"])
	require.Equal(t, "index.html", body["redirect"])
	require.NotNil(t, env.users.users["a@x.com"].LastLogout)

	res = env.postJSON(t, "/logout", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	body = decodeBody(t, res)
	require.Equal(t, "No active session", body["message"])
}

func TestLogoutWithStaleTokenAfterDestroy(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")
	env.login(t, "a@x.com", "pw123")

	// Capture the live token, then log out normally
	serverURL, err := url.Parse(env.server.URL)
	require.NoError(t, err)
	var token string
	for _, c := range env.client.Jar.Cookies(serverURL) {
		if c.Name == "defect_session" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	res := env.postJSON(t, "/logout", nil)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Replay the dead token explicitly
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/logout", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "defect_session", Value: token})
	replay, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer replay.Body.Close()
	require.Equal(t, http.StatusBadRequest, replay.StatusCode)
}

func TestLogoutUserVanished(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com", "pw123")
	env.login(t, "a@x.com", "pw123")

	// User removed out of band while the session is still live
	env.users.delete("a@x.com")

	res := env.postJSON(t, "/logout", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	body := decodeBody(t, res)
	require.Equal(t, "User not found", body["message"])
}
