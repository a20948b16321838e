package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/totegamma/collabfund/internal/infra/database"
	"github.com/totegamma/collabfund/internal/infra/database/models"
	"github.com/totegamma/collabfund/internal/infra/repository"
	"github.com/totegamma/collabfund/internal/present/rest/middleware"
	"github.com/totegamma/collabfund/internal/service"
	"github.com/totegamma/collabfund/internal/transition"
	"github.com/totegamma/collabfund/internal/usecase"
)

type memRevocations struct {
	items map[string]*memcache.Item
	err   error
}

func (m *memRevocations) Get(key string) (*memcache.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[key]
	if !ok {
		return nil, memcache.ErrCacheMiss
	}
	return item, nil
}

func (m *memRevocations) Set(item *memcache.Item) error {
	m.items[item.Key] = item
	return nil
}

type testServer struct {
	e           *echo.Echo
	auth        *service.AuthService
	revocations *memRevocations
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	for id, name := range map[int64]string{1: "owner", 2: "alice", 3: "bob"} {
		require.NoError(t, db.Create(&models.User{ID: id, Username: name, FullName: name}).Error)
	}
	require.NoError(t, db.Create(&models.Project{ID: 10, UserID: 1, Title: "solar", FundingGoal: 1000, CurrentFunding: 100}).Error)
	require.NoError(t, db.Create(&models.Post{ID: 20, UserID: 1, Content: "update"}).Error)
	require.NoError(t, db.Create(&models.Discussion{ID: 30, UserID: 1, Title: "ideas"}).Error)

	store := repository.NewStore(db)
	machines := transition.NewRegistry()
	projection := usecase.NewProjection(machines, nil)
	resolver := service.NewCachedResolver(usecase.NewStoreResolver(store), time.Minute)
	revocations := &memRevocations{items: map[string]*memcache.Item{}}
	auth := service.NewAuthService("test-secret", time.Hour, revocations)

	h := NewHandler(
		usecase.NewInteractionUsecase(store, resolver, machines, projection, nil),
		usecase.NewDonationUsecase(store, projection, nil),
		usecase.NewCommentUsecase(store, projection, nil),
		usecase.NewStatsUsecase(store, projection),
		auth,
	)

	e := echo.New()
	e.Validator = NewValidator()
	h.RegisterRoutes(e, middleware.NewAuthMiddleware(auth))

	return &testServer{e: e, auth: auth, revocations: revocations}
}

func (s *testServer) token(t *testing.T, userID int64) string {
	t.Helper()
	token, err := s.auth.Issue(userID)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestRequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/projects/10/vote", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/projects/10/vote", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRevocationStoreOutageIsServerError(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 2)
	s.revocations.err = memcache.ErrServerError

	code, _ := s.do(t, http.MethodPost, "/api/projects/10/vote", alice, nil)
	assert.Equal(t, http.StatusInternalServerError, code)

	s.revocations.err = nil
	code, _ = s.do(t, http.MethodPost, "/api/projects/10/vote", alice, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestVoteToggle(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 2)

	code, body := s.do(t, http.MethodPost, "/api/projects/10/vote", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "vote added", body["message"])
	assert.Equal(t, float64(1), body["vote_count"])
	assert.NotNil(t, body["vote"])

	code, body = s.do(t, http.MethodPost, "/api/projects/10/vote", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "vote removed", body["message"])
	assert.Equal(t, float64(0), body["vote_count"])
	assert.Nil(t, body["vote"])

	code, _ = s.do(t, http.MethodPost, "/api/projects/999/vote", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPost, "/api/projects/abc/vote", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCollaborationFlow(t *testing.T) {
	s := newTestServer(t)
	owner, alice, bob := s.token(t, 1), s.token(t, 2), s.token(t, 3)

	code, _ := s.do(t, http.MethodPost, "/api/projects/10/collaborate", owner, map[string]string{"message": "me"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.do(t, http.MethodPost, "/api/projects/10/collaborate", alice, map[string]string{"message": "let me help"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(1), body["collaboration_count"])
	collab := body["collaboration"].(map[string]any)
	assert.Equal(t, "pending", collab["state"])
	assert.Equal(t, "let me help", collab["message"])

	code, _ = s.do(t, http.MethodPost, "/api/projects/10/collaborate", alice, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/api/projects/10/collaborations/2/accept", bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/api/projects/10/collaborations/3/accept", owner, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodPost, "/api/projects/10/collaborations/2/accept", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "collaboration request accepted", body["message"])
	assert.Equal(t, "accepted", body["collaboration"].(map[string]any)["state"])
}

func TestFollowFlow(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.token(t, 2), s.token(t, 3)

	code, _ := s.do(t, http.MethodPost, "/api/users/2/follow", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.do(t, http.MethodPost, "/api/users/3/follow", alice, nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(0), body["follower_count"])

	code, body = s.do(t, http.MethodPost, "/api/users/3/follow-requests/2/reject", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "follow request rejected", body["message"])

	code, body = s.do(t, http.MethodPost, "/api/users/3/follow", alice, nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "follow request resent", body["message"])

	code, body = s.do(t, http.MethodPost, "/api/users/3/follow-requests/2/accept", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["follower_count"])
}

func TestReactions(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 2)

	code, _ := s.do(t, http.MethodPost, "/api/posts/20/react", alice, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/posts/20/react", alice, map[string]string{"kind": "angry"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/posts/20/react", alice, map[string]string{"kind": "like"})
	require.Equal(t, http.StatusOK, code)

	code, body := s.do(t, http.MethodPost, "/api/posts/20/react", alice, map[string]string{"kind": "celebrate"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "reaction updated", body["message"])
	counts := body["reaction_counts"].(map[string]any)
	assert.Equal(t, float64(0), counts["like"])
	assert.Equal(t, float64(1), counts["celebrate"])
}

func TestLikesAndSaves(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 2)

	code, body := s.do(t, http.MethodPost, "/api/posts/20/like", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["like_count"])

	code, body = s.do(t, http.MethodPost, "/api/posts/20/save", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["save_count"])

	code, body = s.do(t, http.MethodPost, "/api/discussions/30/like", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["like_count"])

	code, body = s.do(t, http.MethodGet, "/api/posts/20/stats", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["like_count"])
	assert.Equal(t, float64(1), body["save_count"])
}

func TestDonateAndComment(t *testing.T) {
	s := newTestServer(t)
	alice, owner := s.token(t, 2), s.token(t, 1)

	code, body := s.do(t, http.MethodPost, "/api/projects/10/donate", alice, map[string]any{"amount": 25.5, "message": "go"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 125.5, body["new_funding"])

	for _, amount := range []float64{0, -10} {
		code, _ = s.do(t, http.MethodPost, "/api/projects/10/donate", alice, map[string]any{"amount": amount})
		assert.Equal(t, http.StatusBadRequest, code, "amount %v", amount)
	}

	code, _ = s.do(t, http.MethodPost, "/api/projects/999/donate", alice, map[string]any{"amount": 5})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodPost, "/api/projects/10/comments", alice, map[string]string{"content": "great"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(1), body["comments_count"])

	code, body = s.do(t, http.MethodGet, "/api/projects/10/stats", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 125.5, body["current_funding"])
	assert.Equal(t, float64(1), body["comments_count"])

	code, body = s.do(t, http.MethodGet, "/api/dashboard/stats", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total_projects"])
	assert.Equal(t, 125.5, body["total_funding"])
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	alice := s.token(t, 2)

	code, _ := s.do(t, http.MethodPost, "/api/logout", alice, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, "/api/posts/20/like", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
