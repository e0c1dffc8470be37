package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"peopleconnects/internal/cache"
	"peopleconnects/internal/config"
	"peopleconnects/internal/models"
	"peopleconnects/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type testEnv struct {
	s   *Server
	app *fiber.App
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:       testSecret,
		UploadDir:       t.TempDir(),
		MaxUploadSizeMB: 2,
		FeedPageSize:    10,
	}
	s, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), rdb)
	require.NoError(t, err)
	s.identity = s.identity.WithHashCost(bcrypt.MinCost)
	return &testEnv{s: s, app: s.NewApp(), mr: mr, rdb: rdb}
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r response) errorBody(t *testing.T) models.ErrorResponse {
	t.Helper()
	var e models.ErrorResponse
	r.decode(t, &e)
	return e
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) response {
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
	return e.send(t, req, token)
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: b}
}

// register creates an account and returns its token.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	r := e.do(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	var out authResponse
	r.decode(t, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (e *testEnv) createPost(t *testing.T, token, content string) models.Post {
	t.Helper()
	r := e.do(t, http.MethodPost, "/api/posts", fiber.Map{"content": content}, token)
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	var p models.Post
	r.decode(t, &p)
	return p
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")

	r := env.do(t, http.MethodPost, "/api/auth/register", fiber.Map{
		"username": "alice", "email": "other@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Username already exists", r.errorBody(t).Error)

	r = env.do(t, http.MethodPost, "/api/auth/login", fiber.Map{"username": "alice", "password": "nope-nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, models.CodeUnauthorized, r.errorBody(t).Code)

	r = env.do(t, http.MethodPost, "/api/auth/login", fiber.Map{"username": "alice", "password": "password123"}, "")
	require.Equal(t, http.StatusOK, r.status)
	var login authResponse
	r.decode(t, &login)
	assert.Equal(t, "alice", login.User.Username)
	assert.NotContains(t, string(r.body), "password123")

	r = env.do(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, r.status)
	var me models.Profile
	r.decode(t, &me)
	assert.Equal(t, "alice", me.User.Username)

	r = env.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, r.status)
	r = env.do(t, http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "Token has been revoked", r.errorBody(t).Error)

	// The second token is unaffected.
	r = env.do(t, http.MethodGet, "/api/users/me", nil, login.Token)
	assert.Equal(t, http.StatusOK, r.status)
}

func TestParseToken(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.s.generateToken(42, "alice")
	require.NoError(t, err)

	claims, err := env.s.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Minute)

	other := &Server{config: &config.Config{JWTSecret: "another-secret-of-reasonable-length"}}
	_, err = other.parseToken(token)
	assert.Error(t, err)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	r := env.do(t, http.MethodPost, "/api/posts", fiber.Map{"content": "hi"}, "")
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "Authentication required", r.errorBody(t).Error)

	r = env.do(t, http.MethodPost, "/api/posts", fiber.Map{"content": "hi"}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "Invalid or expired token", r.errorBody(t).Error)

	// A bad token on a public route reads as anonymous.
	r = env.do(t, http.MethodGet, "/api/feed", nil, "garbage")
	assert.Equal(t, http.StatusOK, r.status)
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice")
	require.NoError(t, env.s.userRepo.Delete(context.Background(), "alice"))

	r := env.do(t, http.MethodGet, "/api/users/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "User no longer exists", r.errorBody(t).Error)
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	post := env.createPost(t, alice, "hello")
	path := "/api/posts/" + post.ID

	var like models.LikeResult
	r := env.do(t, http.MethodPost, path+"/like", nil, bob)
	require.Equal(t, http.StatusOK, r.status)
	r.decode(t, &like)
	assert.Equal(t, models.LikeResult{Liked: true, LikeCount: 1}, like)
	r = env.do(t, http.MethodPost, path+"/like", nil, bob)
	r.decode(t, &like)
	assert.Equal(t, models.LikeResult{Liked: false, LikeCount: 0}, like)

	r = env.do(t, http.MethodPost, path+"/comments", fiber.Map{"text": "nice"}, bob)
	require.Equal(t, http.StatusCreated, r.status)
	r = env.do(t, http.MethodGet, path+"/comments", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	var comments []models.Comment
	r.decode(t, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].Author)

	r = env.do(t, http.MethodPut, path, fiber.Map{"content": "hijack"}, bob)
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, models.CodeForbidden, r.errorBody(t).Code)

	r = env.do(t, http.MethodPut, path, fiber.Map{"content": "edited"}, alice)
	require.Equal(t, http.StatusOK, r.status)
	var edited models.Post
	r.decode(t, &edited)
	assert.Equal(t, "edited", edited.Content)
	assert.Equal(t, 1, edited.CommentCount)

	r = env.do(t, http.MethodDelete, path, nil, bob)
	assert.Equal(t, http.StatusForbidden, r.status)
	r = env.do(t, http.MethodDelete, path, nil, alice)
	assert.Equal(t, http.StatusNoContent, r.status)
	r = env.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, r.status)
	r = env.do(t, http.MethodPost, path+"/like", nil, bob)
	assert.Equal(t, http.StatusNotFound, r.status)
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	r := env.do(t, http.MethodPost, "/api/posts", fiber.Map{"content": "   "}, alice)
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, models.CodeValidation, r.errorBody(t).Code)
}

func TestCreatePostWithImage(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("content", "with a picture"))
	fw, err := w.CreateFormFile("image", "pic.png")
	require.NoError(t, err)
	_, err = fw.Write(testutil.TinyPNG(t, 32, 32))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	r := env.send(t, req, alice)
	require.Equal(t, http.StatusCreated, r.status, string(r.body))
	var post models.Post
	r.decode(t, &post)
	require.NotEmpty(t, post.Image)
	assert.Equal(t, "with a picture", post.Content)

	r = env.do(t, http.MethodGet, post.Image, nil, "")
	assert.Equal(t, http.StatusOK, r.status)
}

func TestFeedEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	env.register(t, "carol")
	env.createPost(t, bob, "from bob")
	env.createPost(t, alice, "from alice")

	r := env.do(t, http.MethodGet, "/api/feed?filter=following", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	var page models.FeedPage
	r.decode(t, &page)
	assert.Empty(t, page.Posts)

	r = env.do(t, http.MethodPost, "/api/users/bob/follow", nil, alice)
	require.Equal(t, http.StatusOK, r.status)
	r = env.do(t, http.MethodGet, "/api/feed?filter=following&page=0", nil, alice)
	require.Equal(t, http.StatusOK, r.status)
	r.decode(t, &page)
	require.Len(t, page.Posts, 2)
	assert.ElementsMatch(t, []string{"alice", "bob"}, []string{page.Posts[0].Author, page.Posts[1].Author})
	assert.Equal(t, 10, page.PageSize)

	r = env.do(t, http.MethodGet, "/api/feed?page=922337203685477580", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	r.decode(t, &page)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)

	r = env.do(t, http.MethodGet, "/api/feed", nil, "")
	r.decode(t, &page)
	assert.Equal(t, "global", page.Filter)
	assert.Len(t, page.Posts, 2)

	for _, q := range []string{"?filter=trending", "?page=-1", "?page=two"} {
		r = env.do(t, http.MethodGet, "/api/feed"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, r.status, q)
	}
}

func TestFollowEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")

	r := env.do(t, http.MethodPost, "/api/users/alice/follow", nil, alice)
	assert.Equal(t, http.StatusBadRequest, r.status)
	r = env.do(t, http.MethodPost, "/api/users/ghost/follow", nil, alice)
	assert.Equal(t, http.StatusNotFound, r.status)

	for i := 0; i < 2; i++ {
		r = env.do(t, http.MethodPost, "/api/users/bob/follow", nil, alice)
		require.Equal(t, http.StatusOK, r.status)
	}
	r = env.do(t, http.MethodGet, "/api/users/bob", nil, alice)
	require.Equal(t, http.StatusOK, r.status)
	var profile models.Profile
	r.decode(t, &profile)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, 1, profile.FollowersCount)
	assert.Equal(t, []string{"alice"}, profile.User.Followers)

	var list struct {
		Username  string   `json:"username"`
		Followers []string `json:"followers"`
		Following []string `json:"following"`
	}
	r = env.do(t, http.MethodGet, "/api/users/bob/followers", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	r.decode(t, &list)
	assert.Equal(t, "bob", list.Username)
	assert.Equal(t, []string{"alice"}, list.Followers)
	r = env.do(t, http.MethodGet, "/api/users/alice/following", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	r.decode(t, &list)
	assert.Equal(t, []string{"bob"}, list.Following)
	r = env.do(t, http.MethodGet, "/api/users/ghost/followers", nil, "")
	assert.Equal(t, http.StatusNotFound, r.status)

	r = env.do(t, http.MethodDelete, "/api/users/bob/follow", nil, alice)
	require.Equal(t, http.StatusOK, r.status)
	r = env.do(t, http.MethodGet, "/api/users/bob", nil, "")
	r.decode(t, &profile)
	assert.False(t, profile.IsFollowing)
	assert.Zero(t, profile.FollowersCount)
}

func TestFollowPublishesNotification(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := env.rdb.Subscribe(ctx, "notifications:user:bob")
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	r := env.do(t, http.MethodPost, "/api/users/bob/follow", nil, alice)
	require.Equal(t, http.StatusOK, r.status)

	select {
	case msg := <-sub.Channel():
		assert.Contains(t, msg.Payload, `"type":"follow"`)
		assert.Contains(t, msg.Payload, `"actor":"alice"`)
	case <-time.After(time.Second):
		t.Fatal("no notification published")
	}
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.createPost(t, alice, "Gophers everywhere")

	r := env.do(t, http.MethodGet, "/api/search?q=GOPHER", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	var res models.SearchResults
	r.decode(t, &res)
	assert.Len(t, res.Posts, 1)

	r = env.do(t, http.MethodGet, "/api/search?q=", nil, "")
	assert.Equal(t, http.StatusBadRequest, r.status)
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	root := env.register(t, "root")
	alice := env.register(t, "alice")
	require.NoError(t, env.s.userRepo.SetAdmin(context.Background(), "root", true))
	post := env.createPost(t, alice, "questionable")

	r := env.do(t, http.MethodGet, "/api/admin/dashboard", nil, alice)
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "Admin access required", r.errorBody(t).Error)

	r = env.do(t, http.MethodGet, "/api/admin/dashboard", nil, root)
	require.Equal(t, http.StatusOK, r.status)
	var stats models.DashboardStats
	r.decode(t, &stats)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.TotalPosts)

	r = env.do(t, http.MethodDelete, "/api/admin/posts/"+post.ID, nil, root)
	assert.Equal(t, http.StatusNoContent, r.status)

	r = env.do(t, http.MethodDelete, "/api/admin/users/root", nil, root)
	assert.Equal(t, http.StatusBadRequest, r.status)
	r = env.do(t, http.MethodDelete, "/api/admin/users/alice", nil, root)
	assert.Equal(t, http.StatusNoContent, r.status)
	r = env.do(t, http.MethodGet, "/api/users/alice", nil, "")
	assert.Equal(t, http.StatusNotFound, r.status)
}

func TestUpdateMyProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")

	r := env.do(t, http.MethodPut, "/api/users/me", fiber.Map{"email": "bob@example.com"}, alice)
	assert.Equal(t, http.StatusBadRequest, r.status)

	r = env.do(t, http.MethodPut, "/api/users/me", fiber.Map{"email": "alice@new.example.com"}, alice)
	require.Equal(t, http.StatusOK, r.status)
	var u models.User
	r.decode(t, &u)
	assert.Equal(t, "alice@new.example.com", u.Email)
}

func TestWSTicket(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	r := env.do(t, http.MethodPost, "/api/ws/ticket", nil, alice)
	require.Equal(t, http.StatusOK, r.status)
	var out struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}
	r.decode(t, &out)
	require.NotEmpty(t, out.Ticket)
	assert.Equal(t, 60, out.ExpiresIn)
	assert.Equal(t, cache.WSTicketTTL, env.mr.TTL(cache.WSTicketKey(out.Ticket)))

	// Without an upgrade the request fails, but the ticket is spent.
	r = env.do(t, http.MethodGet, "/api/ws?ticket="+out.Ticket, nil, "")
	assert.Equal(t, http.StatusUpgradeRequired, r.status)
	assert.False(t, env.mr.Exists(cache.WSTicketKey(out.Ticket)))

	r = env.do(t, http.MethodGet, "/api/ws?ticket="+out.Ticket, nil, "")
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "Invalid or expired WebSocket ticket", r.errorBody(t).Error)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	r := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, r.status)

	r = env.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	var body struct {
		Status      string            `json:"status"`
		Checks      map[string]string `json:"checks"`
		Connections *int              `json:"websocket_connections"`
	}
	r.decode(t, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["redis"])
	require.NotNil(t, body.Connections)
	assert.Zero(t, *body.Connections)

	env.mr.Close()
	r = env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, r.status)
}

func TestServerWithoutRedis(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret, UploadDir: t.TempDir()}
	s, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	s.identity = s.identity.WithHashCost(bcrypt.MinCost)
	env := &testEnv{s: s, app: s.NewApp()}
	alice := env.register(t, "alice")
	env.register(t, "bob")

	r := env.do(t, http.MethodPost, "/api/users/bob/follow", nil, alice)
	assert.Equal(t, http.StatusOK, r.status)
	r = env.do(t, http.MethodPost, "/api/ws/ticket", nil, alice)
	assert.Equal(t, http.StatusServiceUnavailable, r.status)

	r = env.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, string(r.body), `"degraded"`)
}
