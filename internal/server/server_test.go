package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/harshal20m/storeratings/internal/auth"
	"github.com/harshal20m/storeratings/internal/config"
	"github.com/harshal20m/storeratings/internal/repository/memory"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

func newTestServer(t *testing.T) (*Server, *memory.Repository) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.JWT.Secret = "test-secret"
	cfg.Database.Type = "memory"
	cfg.CORS.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = false

	repo := memory.NewRepository()
	t.Cleanup(func() { repo.Close() })

	jm, err := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.ExpiresIn.Std(), cfg.JWT.Issuer)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	srv, err := New(cfg, zap.NewNop(), repo, jm)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv, repo
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func registerAndLogin(t *testing.T, srv *Server, email string) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Registered Test Account Name",
		"email":    email,
		"password": "Abcdef1!",
		"address":  "10 Register Road",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "Abcdef1!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", email, w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	return resp.Token
}

// adminToken seeds an admin directly in the repository and logs in through
// the API so the token is a real one.
func adminToken(t *testing.T, srv *Server, repo *memory.Repository) string {
	t.Helper()

	hasher := auth.NewPasswordHasher()
	hash, err := hasher.Hash("Adminpw1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admin := &ratings.User{
		Name:     "Seeded Administrator Account",
		Email:    "admin@example.com",
		Password: hash,
		Address:  "11 Admin Avenue",
		Role:     ratings.RoleAdmin,
	}
	if err := repo.Users().Create(context.Background(), admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	w := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "Adminpw1!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin login: status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	return resp.Token
}

func createStore(t *testing.T, srv *Server, token string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, srv, http.MethodPost, "/api/stores", token, body)
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Round Trip Test Account",
		"email":    "roundtrip@example.com",
		"password": "Abcdef1!",
		"address":  "12 Loop Lane",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "roundtrip@example.com",
		"password": "Abcdef1!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	decode(t, w, &resp)

	if resp.Token == "" {
		t.Fatal("empty token")
	}
	if resp.User.Email != "roundtrip@example.com" || resp.User.Role != "user" {
		t.Errorf("user = %+v", resp.User)
	}

	jm, _ := auth.NewJWTManager("test-secret", "HS256", time.Hour, "storeratings")
	claims, err := jm.Validate(resp.Token)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Email != resp.User.Email || string(claims.Role) != resp.User.Role {
		t.Errorf("claims %+v do not match user %+v", claims, resp.User)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv, _ := newTestServer(t)

	registerAndLogin(t, srv, "dup@example.com")

	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Second Account Same Email",
		"email":    "dup@example.com",
		"password": "Abcdef1!",
		"address":  "13 Conflict Close",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp struct {
		Message string `json:"message"`
	}
	decode(t, w, &resp)
	if resp.Message != "Email already registered" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "short",
		"email":    "bad",
		"password": "weak",
		"address":  "",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	decode(t, w, &resp)
	if resp.Message != "Validation failed" {
		t.Errorf("message = %q", resp.Message)
	}
	if len(resp.Errors) != 4 {
		t.Errorf("errors = %v, want 4 entries", resp.Errors)
	}
}

func TestLoginUniformFailureMessage(t *testing.T) {
	srv, _ := newTestServer(t)

	registerAndLogin(t, srv, "known@example.com")

	cases := []map[string]string{
		{"email": "unknown@example.com", "password": "Abcdef1!"},
		{"email": "known@example.com", "password": "Wrongpw1!"},
	}
	for _, body := range cases {
		w := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401 for %v", w.Code, body)
		}
		var resp struct {
			Message string `json:"message"`
		}
		decode(t, w, &resp)
		if resp.Message != "Invalid credentials" {
			t.Errorf("message = %q, want uniform response", resp.Message)
		}
	}
}

func TestUpdatePassword(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv, "pwchange@example.com")

	w := doJSON(t, srv, http.MethodPut, "/api/auth/password", token, map[string]string{
		"currentPassword": "Wrongpw1!",
		"newPassword":     "Newpass1!",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong current password: status = %d, want 401", w.Code)
	}

	w = doJSON(t, srv, http.MethodPut, "/api/auth/password", token, map[string]string{
		"currentPassword": "Abcdef1!",
		"newPassword":     "weak",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("weak new password: status = %d, want 400", w.Code)
	}

	w = doJSON(t, srv, http.MethodPut, "/api/auth/password", token, map[string]string{
		"currentPassword": "Abcdef1!",
		"newPassword":     "Newpass1!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "pwchange@example.com",
		"password": "Newpass1!",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login with new password: status = %d", w.Code)
	}
}

func TestRoleGates(t *testing.T) {
	srv, repo := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/users", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	userToken := registerAndLogin(t, srv, "plain@example.com")
	w = doJSON(t, srv, http.MethodGet, "/api/users", userToken, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("user token on admin route: status = %d, want 403", w.Code)
	}

	admin := adminToken(t, srv, repo)
	w = doJSON(t, srv, http.MethodGet, "/api/users", admin, nil)
	if w.Code != http.StatusOK {
		t.Errorf("admin token: status = %d, want 200", w.Code)
	}

	// admin does not satisfy the user-only rating gate
	w = doJSON(t, srv, http.MethodPost, "/api/ratings", admin, map[string]interface{}{
		"storeId": 1, "rating": 4,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("admin token on user route: status = %d, want 403", w.Code)
	}
}

func TestCreateStoreAndListProjections(t *testing.T) {
	srv, repo := newTestServer(t)
	admin := adminToken(t, srv, repo)

	w := createStore(t, srv, admin, map[string]string{
		"name":          "Corner Grocery",
		"email":         "grocery@example.com",
		"address":       "14 Produce Place",
		"ownerEmail":    "grocer@example.com",
		"ownerName":     "Grocer With A Long Name",
		"ownerPassword": "Grocerpw1!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create store: status = %d, body = %s", w.Code, w.Body.String())
	}

	userToken := registerAndLogin(t, srv, "shopper@example.com")

	// the user projection carries user_rating, null before any rating
	w = doJSON(t, srv, http.MethodGet, "/api/stores", userToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list stores: status = %d", w.Code)
	}
	var userRows []map[string]json.RawMessage
	decode(t, w, &userRows)
	if len(userRows) != 1 {
		t.Fatalf("len = %d, want 1", len(userRows))
	}
	raw, ok := userRows[0]["user_rating"]
	if !ok {
		t.Fatal("user projection is missing user_rating")
	}
	if string(raw) != "null" {
		t.Errorf("user_rating = %s, want null before rating", raw)
	}

	// the admin projection omits user_rating entirely
	w = doJSON(t, srv, http.MethodGet, "/api/stores", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list stores as admin: status = %d", w.Code)
	}
	var adminRows []map[string]json.RawMessage
	decode(t, w, &adminRows)
	if _, ok := adminRows[0]["user_rating"]; ok {
		t.Error("admin projection should not carry user_rating")
	}
}

func TestCreateStoreReusesExistingOwner(t *testing.T) {
	srv, repo := newTestServer(t)
	admin := adminToken(t, srv, repo)

	registerAndLogin(t, srv, "existing@example.com")

	before, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	w := createStore(t, srv, admin, map[string]string{
		"name":       "Owned By Existing",
		"email":      "owned@example.com",
		"address":    "15 Reuse Row",
		"ownerEmail": "existing@example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create store: status = %d, body = %s", w.Code, w.Body.String())
	}

	after, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalUsers != before.TotalUsers {
		t.Errorf("user count changed from %d to %d; existing owner should be reused", before.TotalUsers, after.TotalUsers)
	}
	if after.TotalStores != before.TotalStores+1 {
		t.Errorf("store count = %d, want %d", after.TotalStores, before.TotalStores+1)
	}
}

func TestCreateStoreDuplicateEmailRollsBack(t *testing.T) {
	srv, repo := newTestServer(t)
	admin := adminToken(t, srv, repo)

	w := createStore(t, srv, admin, map[string]string{
		"name":          "First Store Standing",
		"email":         "taken@example.com",
		"address":       "16 First Street",
		"ownerEmail":    "first-owner@example.com",
		"ownerName":     "First Owner Long Name Here",
		"ownerPassword": "Ownerpw1!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("first create: status = %d, body = %s", w.Code, w.Body.String())
	}

	before, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	w = createStore(t, srv, admin, map[string]string{
		"name":          "Second Store Duplicate",
		"email":         "taken@example.com",
		"address":       "17 Second Street",
		"ownerEmail":    "second-owner@example.com",
		"ownerName":     "Second Owner Long Name Here",
		"ownerPassword": "Ownerpw1!",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate create: status = %d, want 400", w.Code)
	}

	after, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalUsers != before.TotalUsers {
		t.Errorf("rolled-back store creation left a new user row (%d -> %d)", before.TotalUsers, after.TotalUsers)
	}
	exists, err := repo.Users().ExistsByEmail(context.Background(), "second-owner@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("owner of the failed store creation survived the rollback")
	}
}

func TestRatingFlow(t *testing.T) {
	srv, repo := newTestServer(t)
	admin := adminToken(t, srv, repo)

	w := createStore(t, srv, admin, map[string]string{
		"name":          "Rateable Store Here",
		"email":         "rateable@example.com",
		"address":       "18 Rating Road",
		"ownerEmail":    "rated-owner@example.com",
		"ownerName":     "Rated Owner Long Name Here",
		"ownerPassword": "Ownerpw1!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create store: status = %d", w.Code)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, w, &created)

	userToken := registerAndLogin(t, srv, "rater@example.com")

	// no rating yet
	w = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/ratings/store/%d", created.ID), userToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get rating: status = %d", w.Code)
	}
	var ratingResp struct {
		Rating *int `json:"rating"`
	}
	decode(t, w, &ratingResp)
	if ratingResp.Rating != nil {
		t.Errorf("rating = %v, want null", *ratingResp.Rating)
	}

	// unknown store
	w = doJSON(t, srv, http.MethodPost, "/api/ratings", userToken, map[string]interface{}{
		"storeId": 9999, "rating": 4,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown store: status = %d, want 404", w.Code)
	}

	// first submission creates
	w = doJSON(t, srv, http.MethodPost, "/api/ratings", userToken, map[string]interface{}{
		"storeId": created.ID, "rating": 3,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("first rating: status = %d, body = %s", w.Code, w.Body.String())
	}

	// second submission updates in place
	w = doJSON(t, srv, http.MethodPost, "/api/ratings", userToken, map[string]interface{}{
		"storeId": created.ID, "rating": 5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("second rating: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/ratings/store/%d", created.ID), userToken, nil)
	decode(t, w, &ratingResp)
	if ratingResp.Rating == nil || *ratingResp.Rating != 5 {
		t.Errorf("rating = %v, want 5", ratingResp.Rating)
	}

	// out-of-range value
	w = doJSON(t, srv, http.MethodPost, "/api/ratings", userToken, map[string]interface{}{
		"storeId": created.ID, "rating": 6,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid rating: status = %d, want 400", w.Code)
	}
}

func TestMyStore(t *testing.T) {
	srv, repo := newTestServer(t)
	admin := adminToken(t, srv, repo)

	w := createStore(t, srv, admin, map[string]string{
		"name":          "Owner Dashboard Store",
		"email":         "dashstore@example.com",
		"address":       "19 Owner Way",
		"ownerEmail":    "dash-owner@example.com",
		"ownerName":     "Dashboard Owner Long Name",
		"ownerPassword": "Ownerpw1!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create store: status = %d", w.Code)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decode(t, w, &created)

	userToken := registerAndLogin(t, srv, "visitor@example.com")
	w = doJSON(t, srv, http.MethodPost, "/api/ratings", userToken, map[string]interface{}{
		"storeId": created.ID, "rating": 4,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("rate: status = %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "dash-owner@example.com",
		"password": "Ownerpw1!",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("owner login: status = %d", w.Code)
	}
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)

	w = doJSON(t, srv, http.MethodGet, "/api/stores/my-store", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("my-store: status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Store struct {
			ID           int64   `json:"id"`
			Rating       float64 `json:"rating"`
			TotalRatings int64   `json:"total_ratings"`
		} `json:"store"`
		Raters []struct {
			Email  string `json:"email"`
			Rating int    `json:"rating"`
		} `json:"raters"`
	}
	decode(t, w, &resp)
	if resp.Store.ID != created.ID || resp.Store.Rating != 4 || resp.Store.TotalRatings != 1 {
		t.Errorf("store = %+v", resp.Store)
	}
	if len(resp.Raters) != 1 || resp.Raters[0].Email != "visitor@example.com" || resp.Raters[0].Rating != 4 {
		t.Errorf("raters = %+v", resp.Raters)
	}
}

func TestDashboardStats(t *testing.T) {
	srv, repo := newTestServer(t)
	admin := adminToken(t, srv, repo)

	registerAndLogin(t, srv, "counted@example.com")

	w := doJSON(t, srv, http.MethodGet, "/api/dashboard/stats", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status = %d", w.Code)
	}
	var stats struct {
		TotalUsers   int64 `json:"totalUsers"`
		TotalStores  int64 `json:"totalStores"`
		TotalRatings int64 `json:"totalRatings"`
	}
	decode(t, w, &stats)
	if stats.TotalUsers != 2 {
		t.Errorf("totalUsers = %d, want 2 (admin + registered user)", stats.TotalUsers)
	}
}

func TestAdminCreateUser(t *testing.T) {
	srv, repo := newTestServer(t)
	admin := adminToken(t, srv, repo)

	w := doJSON(t, srv, http.MethodPost, "/api/users", admin, map[string]string{
		"name":     "Admin Made User Account",
		"email":    "made@example.com",
		"password": "Abcdef1!",
		"address":  "20 Created Court",
		"role":     "admin",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create user: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, http.MethodPost, "/api/users", admin, map[string]string{
		"name":     "Bad Role User Account Name",
		"email":    "badrole@example.com",
		"password": "Abcdef1!",
		"address":  "21 Invalid Isle",
		"role":     "superuser",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid role: status = %d, want 400", w.Code)
	}
}

func TestGetUserByID(t *testing.T) {
	srv, repo := newTestServer(t)
	admin := adminToken(t, srv, repo)

	w := doJSON(t, srv, http.MethodGet, "/api/users/1", admin, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get user 1: status = %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodGet, "/api/users/9999", admin, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing user: status = %d, want 404", w.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health: status = %d", w.Code)
	}
}
