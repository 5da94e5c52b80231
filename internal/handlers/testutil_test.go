package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"bayou-board/internal/auth"
	"bayou-board/internal/config"
	"bayou-board/internal/database"
	"bayou-board/internal/middleware"
	"bayou-board/internal/models"
	"bayou-board/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeDB is an in-memory DBAdapter with the same error taxonomy as the
// Postgres implementation. It also satisfies auth.Store, so the session
// manager in tests runs against the same state.
type fakeDB struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*models.User
	sessions   map[string]*models.Session
	categories map[uuid.UUID]*models.Category
	info       map[uuid.UUID]*models.UserInfo
	entries    []*models.ReputationEntry
}

var _ database.DBAdapter = (*fakeDB)(nil)
var _ auth.Store = (*fakeDB)(nil)

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:      make(map[uuid.UUID]*models.User),
		sessions:   make(map[string]*models.Session),
		categories: make(map[uuid.UUID]*models.Category),
		info:       make(map[uuid.UUID]*models.UserInfo),
	}
}

func (f *fakeDB) Close(ctx context.Context) error { return nil }

func (f *fakeDB) SaveUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "Username is already in use", nil)
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	copied := *user
	f.users[user.ID] = &copied
	f.info[user.ID] = &models.UserInfo{UserID: user.ID, Reputation: 0, ReputationPower: 1}
	return nil
}

func (f *fakeDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
}

func (f *fakeDB) SearchUsers(ctx context.Context, search string, limit, offset int) ([]*models.UserSummary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []*models.User{}
	for _, user := range f.users {
		if strings.Contains(user.Username, search) {
			matched = append(matched, user)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].Username < matched[j].Username
	})
	total := len(matched)

	summaries := []*models.UserSummary{}
	for i := offset; i < total && i < offset+limit; i++ {
		summaries = append(summaries, &models.UserSummary{
			Username: matched[i].Username,
			Role:     matched[i].Role,
		})
	}
	return summaries, total, nil
}

func (f *fakeDB) UpdateUsername(ctx context.Context, id uuid.UUID, newUsername string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == newUsername && user.ID != id {
			return utils.NewAppError(utils.ErrDuplicate, "Username is already taken", nil)
		}
	}
	user, ok := f.users[id]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for username update", nil)
	}
	user.Username = newUsername
	return nil
}

func (f *fakeDB) DeleteUser(ctx context.Context, username string, requesterID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var target *models.User
	for _, user := range f.users {
		if user.Username == username {
			target = user
			break
		}
	}
	if target == nil {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	if target.ID == requesterID {
		return utils.NewAppError(utils.ErrSelfDeletion, "You cannot delete your own account", nil)
	}
	delete(f.users, target.ID)
	delete(f.info, target.ID)
	for token, session := range f.sessions {
		if session.UserID == target.ID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeDB) GetUserProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	user, err := f.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (f *fakeDB) CreateSession(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *session
	f.sessions[session.Token] = &copied
	return nil
}

func (f *fakeDB) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[token]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "session not found", nil)
	}
	copied := *session
	return &copied, nil
}

func (f *fakeDB) UpdateSessionExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, session := range f.sessions {
		if session.ID == id {
			session.ExpiresAt = expiresAt
			return nil
		}
	}
	return utils.NewAppError(utils.ErrNotFound, "session not found for expiry update", nil)
}

func (f *fakeDB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, session := range f.sessions {
		if session.ID == id {
			delete(f.sessions, token)
			return nil
		}
	}
	return nil
}

func (f *fakeDB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for token, session := range f.sessions {
		if session.Expired(now) {
			delete(f.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeDB) CreateCategory(ctx context.Context, category *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.categories {
		if existing.Name == category.Name {
			return utils.NewAppError(utils.ErrDuplicate, "category already exists", nil)
		}
	}
	copied := *category
	f.categories[category.ID] = &copied
	return nil
}

func (f *fakeDB) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	category, ok := f.categories[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrCategoryNotFound, "Category not found", nil)
	}
	copied := *category
	return &copied, nil
}

func (f *fakeDB) listCategories(activeOnly bool) []*models.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	categories := []*models.Category{}
	for _, category := range f.categories {
		if activeOnly && !category.IsActive {
			continue
		}
		copied := *category
		categories = append(categories, &copied)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories
}

func (f *fakeDB) GetAllCategories(ctx context.Context) ([]*models.Category, error) {
	return f.listCategories(false), nil
}

func (f *fakeDB) GetActiveCategories(ctx context.Context) ([]*models.Category, error) {
	return f.listCategories(true), nil
}

func (f *fakeDB) UpdateCategory(ctx context.Context, category *models.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.categories[category.ID]
	if !ok {
		return utils.NewAppError(utils.ErrCategoryNotFound, "Category not found", nil)
	}
	for _, other := range f.categories {
		if other.Name == category.Name && other.ID != category.ID {
			return utils.NewAppError(utils.ErrDuplicate, "category name already in use", nil)
		}
	}
	existing.Name = category.Name
	existing.Description = category.Description
	existing.IsActive = category.IsActive
	return nil
}

func (f *fakeDB) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	category, ok := f.categories[id]
	if !ok {
		return utils.NewAppError(utils.ErrCategoryNotFound, "Category not found", nil)
	}
	if category.IsActive {
		return utils.NewCategoryActiveError()
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeDB) GiveReputation(ctx context.Context, entry *models.ReputationEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.info[entry.ReceiverID]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "receiver not found for reputation update", nil)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	copied := *entry
	f.entries = append(f.entries, &copied)
	info.Reputation += entry.Amount
	return nil
}

func (f *fakeDB) GetReputationHistory(ctx context.Context, username string) (*models.ReputationHistory, error) {
	owner, err := f.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	stats := models.ReputationStats{
		Username:        owner.Username,
		ReputationPower: 1,
	}
	if info, ok := f.info[owner.ID]; ok {
		stats.CurrentReputation = info.Reputation
		stats.ReputationPower = info.ReputationPower
	}

	received := []*models.ReputationRecord{}
	given := []*models.ReputationRecord{}
	for _, entry := range f.entries {
		record := &models.ReputationRecord{
			ID:        entry.ID,
			Amount:    entry.Amount,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt,
			ThreadID:  entry.ThreadID,
			CommentID: entry.CommentID,
		}
		if entry.ReceiverID == owner.ID {
			if giver, ok := f.users[entry.GiverID]; ok {
				record.GiverUsername = giver.Username
			}
			received = append(received, record)
			stats.TotalReceived += entry.Amount
			stats.ReceivedCount++
		}
		if entry.GiverID == owner.ID {
			if receiver, ok := f.users[entry.ReceiverID]; ok {
				record.ReceiverUsername = receiver.Username
			}
			given = append(given, record)
			stats.TotalGiven += entry.Amount
			stats.GivenCount++
		}
	}

	return &models.ReputationHistory{User: stats, Received: received, Given: given}, nil
}

// testApp wires a Server over the fake database with the real session
// manager, gate and identity middleware.
type testApp struct {
	handler http.Handler
	db      *fakeDB
	manager *auth.Manager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := newFakeDB()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := auth.NewManager(db, 30*24*time.Hour)
	gate := auth.NewGate(manager, false)
	cfg := &config.Config{
		Server:      config.DefaultServerConfig(),
		Session:     config.DefaultSessionConfig(),
		Environment: "development",
	}
	server := NewServer(db, manager, gate, logger, cfg)
	handler := middleware.WithIdentity(gate, logger)(server.Routes())
	return &testApp{handler: handler, db: db, manager: manager}
}

// do sends one JSON request, optionally carrying the session cookie.
func (a *testApp) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeAction(t *testing.T, rec *httptest.ResponseRecorder) ActionResponse {
	t.Helper()
	var resp ActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.SessionCookieName {
			return cookie
		}
	}
	return nil
}

// register creates an account through the HTTP surface and returns the
// session cookie from the response.
func (a *testApp) register(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/auth/register", RegisterRequest{Username: username, Password: password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, "register %s failed: %s", username, rec.Body.String())
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie
}

// seedAdmin plants an admin account directly in the store and opens a
// session for it. Registration only ever creates regular users.
func (a *testApp) seedAdmin(t *testing.T, username string) *http.Cookie {
	t.Helper()
	hashed, err := auth.HashPassword("Admin123")
	require.NoError(t, err)
	admin := &models.User{
		ID:             uuid.New(),
		Username:       username,
		HashedPassword: hashed,
		Role:           models.RoleAdmin,
	}
	require.NoError(t, a.db.SaveUser(context.Background(), admin))

	token, err := auth.GenerateSessionToken()
	require.NoError(t, err)
	_, err = a.manager.CreateSession(context.Background(), token, admin.ID)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}
