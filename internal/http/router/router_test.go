package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mariabakes/breads-rest-api/internal/domain"
	"github.com/mariabakes/breads-rest-api/internal/http/handler"
	"github.com/mariabakes/breads-rest-api/internal/repository"
	"github.com/mariabakes/breads-rest-api/internal/security"
	"github.com/mariabakes/breads-rest-api/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.User{}, &domain.Token{}, &domain.Bakery{}, &domain.Bread{}, &domain.Tag{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	jwtMgr := security.NewJWTManager(
		"iss",
		"aud",
		"abcdefghijklmnopqrstuvwxyz123456",
		"abcdefghijklmnopqrstuvwxyz654321",
	)
	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	bakeries := repository.NewBakeryRepository(db)
	breads := repository.NewBreadRepository(db)
	tags := repository.NewTagRepository(db)

	authSvc := service.NewAuthService(jwtMgr, users, tokens, nil, service.AuthConfig{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})

	return NewRouter(Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc),
		BakeryHandler:    handler.NewBakeryHandler(service.NewBakeryService(bakeries)),
		BreadHandler:     handler.NewBreadHandler(service.NewBreadService(breads, bakeries, tags)),
		TagHandler:       handler.NewTagHandler(service.NewTagService(tags, bakeries)),
		UserHandler:      handler.NewUserHandler(service.NewUserService(users)),
		JWTManager:       jwtMgr,
		Gate:             authSvc,
		APIRateLimitRPM:  10000,
		AuthRateLimitRPM: 10000,
	})
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var env apiEnvelope
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope for %s %s: %v (%s)", method, path, err, rr.Body.String())
		}
	}
	return rr, env
}

func registerAndLogin(t *testing.T, h http.Handler, username string) (access, refresh string) {
	t.Helper()
	rr, _ := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter2hunter2",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rr.Code, rr.Body.String())
	}
	rr, env := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "hunter2hunter2",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(env.Data, &pair); err != nil {
		t.Fatalf("decode token pair: %v", err)
	}
	return pair.AccessToken, pair.RefreshToken
}

func TestHealthLive(t *testing.T) {
	h := newTestRouter(t)
	rr, _ := doJSON(t, h, http.MethodGet, "/health/live", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCatalogRequiresAuthForMutations(t *testing.T) {
	h := newTestRouter(t)

	rr, env := doJSON(t, h, http.MethodPost, "/api/v1/bakeries", "", map[string]string{
		"name":    "Crusty Corner",
		"address": "1 Baker St",
	})
	if rr.Code != http.StatusUnauthorized || env.Error.Code != "AUTHORIZATION_REQUIRED" {
		t.Fatalf("expected 401 AUTHORIZATION_REQUIRED, got %d %s", rr.Code, rr.Body.String())
	}

	rr, _ = doJSON(t, h, http.MethodGet, "/api/v1/bakeries", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("listing should be public, got %d", rr.Code)
	}
}

func TestBreadReadsRequireAuth(t *testing.T) {
	h := newTestRouter(t)

	rr, env := doJSON(t, h, http.MethodGet, "/api/v1/breads", "", nil)
	if rr.Code != http.StatusUnauthorized || env.Error.Code != "AUTHORIZATION_REQUIRED" {
		t.Fatalf("expected 401 AUTHORIZATION_REQUIRED, got %d %s", rr.Code, rr.Body.String())
	}

	rr, env = doJSON(t, h, http.MethodGet, "/api/v1/breads/1", "", nil)
	if rr.Code != http.StatusUnauthorized || env.Error.Code != "AUTHORIZATION_REQUIRED" {
		t.Fatalf("expected 401 AUTHORIZATION_REQUIRED, got %d %s", rr.Code, rr.Body.String())
	}

	access, _ := registerAndLogin(t, h, "maria")
	rr, _ = doJSON(t, h, http.MethodGet, "/api/v1/breads", access, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("authenticated listing: %d %s", rr.Code, rr.Body.String())
	}
}

func TestBreadLifecycleThroughAPI(t *testing.T) {
	h := newTestRouter(t)
	access, refresh := registerAndLogin(t, h, "maria")

	rr, env := doJSON(t, h, http.MethodPost, "/api/v1/bakeries", access, map[string]string{
		"name":    "Crusty Corner",
		"address": "1 Baker St",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create bakery: %d %s", rr.Code, rr.Body.String())
	}
	var bakery struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &bakery); err != nil {
		t.Fatalf("decode bakery: %v", err)
	}

	rr, env = doJSON(t, h, http.MethodPost, "/api/v1/breads", access, map[string]any{
		"name":      "Sourdough",
		"price":     4.5,
		"currency":  "EUR",
		"bakery_id": bakery.ID,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create bread with fresh token: %d %s", rr.Code, rr.Body.String())
	}
	var bread struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &bread); err != nil {
		t.Fatalf("decode bread: %v", err)
	}

	rr, _ = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/breads/%d", bread.ID), access, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get bread: %d", rr.Code)
	}

	// a refreshed token is not fresh and must not create breads
	rr, env = doJSON(t, h, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": refresh,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rr.Code, rr.Body.String())
	}
	var refreshed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &refreshed); err != nil {
		t.Fatalf("decode refreshed pair: %v", err)
	}
	rr, env = doJSON(t, h, http.MethodPost, "/api/v1/breads", refreshed.AccessToken, map[string]any{
		"name":      "Rye",
		"price":     3.5,
		"currency":  "EUR",
		"bakery_id": bakery.ID,
	})
	if rr.Code != http.StatusUnauthorized || env.Error.Code != "FRESH_TOKEN_REQUIRED" {
		t.Fatalf("expected FRESH_TOKEN_REQUIRED, got %d %s", rr.Code, rr.Body.String())
	}

	// deleting breads is admin only
	rr, env = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/v1/breads/%d", bread.ID), access, nil)
	if rr.Code != http.StatusUnauthorized || env.Error.Code != "ADMIN_REQUIRED" {
		t.Fatalf("expected ADMIN_REQUIRED, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestListActiveTokens(t *testing.T) {
	h := newTestRouter(t)
	access, _ := registerAndLogin(t, h, "maria")

	rr, env := doJSON(t, h, http.MethodGet, "/api/v1/auth/tokens", access, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list tokens: %d %s", rr.Code, rr.Body.String())
	}
	var tokens []struct {
		JTI       string `json:"jti"`
		TokenType string `json:"token_type"`
	}
	if err := json.Unmarshal(env.Data, &tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	// login ledgers one access and one refresh token
	if len(tokens) != 2 {
		t.Fatalf("expected 2 live tokens, got %d", len(tokens))
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	h := newTestRouter(t)
	access, _ := registerAndLogin(t, h, "maria")

	rr, _ := doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", access, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", rr.Code, rr.Body.String())
	}

	rr, env := doJSON(t, h, http.MethodPost, "/api/v1/bakeries", access, map[string]string{
		"name":    "After Hours",
		"address": "2 Baker St",
	})
	if rr.Code != http.StatusUnauthorized || env.Error.Code != "TOKEN_REVOKED" {
		t.Fatalf("expected TOKEN_REVOKED after logout, got %d %s", rr.Code, rr.Body.String())
	}

	// the gate stops a second logout with the same revoked token
	rr, env = doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", access, nil)
	if rr.Code != http.StatusUnauthorized || env.Error.Code != "TOKEN_REVOKED" {
		t.Fatalf("expected TOKEN_REVOKED on second logout, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestTagEndpoints(t *testing.T) {
	h := newTestRouter(t)
	access, _ := registerAndLogin(t, h, "maria")

	_, env := doJSON(t, h, http.MethodPost, "/api/v1/bakeries", access, map[string]string{
		"name":    "Crusty Corner",
		"address": "1 Baker St",
	})
	var bakery struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &bakery); err != nil {
		t.Fatalf("decode bakery: %v", err)
	}

	rr, env := doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/v1/bakeries/%d/tags", bakery.ID), access, map[string]string{
		"name": "organic",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create tag: %d %s", rr.Code, rr.Body.String())
	}
	var tag struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &tag); err != nil {
		t.Fatalf("decode tag: %v", err)
	}

	_, env = doJSON(t, h, http.MethodPost, "/api/v1/breads", access, map[string]any{
		"name":      "Sourdough",
		"price":     4.5,
		"currency":  "EUR",
		"bakery_id": bakery.ID,
	})
	var bread struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &bread); err != nil {
		t.Fatalf("decode bread: %v", err)
	}

	rr, _ = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/v1/breads/%d/tags/%d", bread.ID, tag.ID), access, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("link tag: %d %s", rr.Code, rr.Body.String())
	}

	// a linked tag cannot be deleted
	rr, env = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/v1/tags/%d", tag.ID), access, nil)
	if rr.Code != http.StatusBadRequest || env.Error.Code != "TAG_IN_USE" {
		t.Fatalf("expected TAG_IN_USE, got %d %s", rr.Code, rr.Body.String())
	}

	rr, _ = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/v1/breads/%d/tags/%d", bread.ID, tag.ID), access, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unlink tag: %d %s", rr.Code, rr.Body.String())
	}

	rr, _ = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/v1/tags/%d", tag.ID), access, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete unlinked tag: %d %s", rr.Code, rr.Body.String())
	}
}
