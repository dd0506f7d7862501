package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okovalenko/uniconnect/internal/auth"
	"github.com/okovalenko/uniconnect/internal/catalog"
	"github.com/okovalenko/uniconnect/internal/config"
	"github.com/okovalenko/uniconnect/internal/identity"
	"github.com/okovalenko/uniconnect/internal/listing"
	"github.com/okovalenko/uniconnect/internal/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	fs, err := store.NewFileStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adapter := store.NewAdapter(fs, time.Minute, store.Options{Logger: logger})

	identitySvc := identity.NewService(adapter, identity.NewMemorySessionStore(), logger)
	listingSvc := listing.NewService(adapter, identitySvc, logger)

	cfg := config.Config{Env: "test", JWTSecret: "test-secret"}

	return NewRouter(Deps{
		Cfg:       cfg,
		Identity:  identitySvc,
		Listing:   listingSvc,
		AutoSaver: listing.NewAutoSaver(listingSvc, time.Minute),
		Catalog:   catalog.NewService(adapter),
		JWT:       auth.NewManager(cfg.JWTSecret, 15*time.Minute, 24*time.Hour, 30*24*time.Hour),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any

	err := json.Unmarshal(w.Body.Bytes(), &body)

	if err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}

	return body
}

func registerAndLogin(t *testing.T, r *gin.Engine, email string) (token, userID string) {
	t.Helper()

	reg := fmt.Sprintf(`{
		"email": %q,
		"password": "secret1",
		"confirmPassword": "secret1",
		"type": "company",
		"companyName": "TechCo",
		"industry": "it",
		"contactPerson": "Іван"
	}`, email)

	w := doJSON(t, r, http.MethodPost, "/auth/register", "", reg)

	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}

	login := fmt.Sprintf(`{"email": %q, "password": "secret1"}`, email)

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", login)

	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)

	token, _ = body["accessToken"].(string)

	u, _ := body["user"].(map[string]any)
	userID, _ = u["id"].(string)

	if token == "" || userID == "" {
		t.Fatalf("login response missing token or user: %v", body)
	}

	return token, userID
}

func TestRegisterLoginCreateListFlow(t *testing.T) {
	r := newTestRouter(t)

	token, userID := registerAndLogin(t, r, "co@example.com")

	w := doJSON(t, r, http.MethodPost, "/announcements", token, `{
		"title": "Стажування в TechCo",
		"category": "internship",
		"description": "Три місяці, оплачувано",
		"format": "hybrid",
		"urgent": true
	}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}

	created := decodeBody(t, w)["announcement"].(map[string]any)

	if created["authorId"] != userID || created["status"] != "active" {
		t.Fatalf("bad created announcement: %v", created)
	}

	// board shows it without auth
	w = doJSON(t, r, http.MethodGet, "/announcements", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}

	page := decodeBody(t, w)

	if page["totalItems"].(float64) != 1 {
		t.Fatalf("want 1 item on the board, got %v", page["totalItems"])
	}

	// stats reflect the state
	w = doJSON(t, r, http.MethodGet, "/stats", "", "")

	stats := decodeBody(t, w)

	if stats["totalAnnouncements"].(float64) != 1 || stats["totalCompanies"].(float64) != 1 {
		t.Fatalf("bad stats: %v", stats)
	}
}

func TestViewCounting(t *testing.T) {
	r := newTestRouter(t)

	token, _ := registerAndLogin(t, r, "co@example.com")

	w := doJSON(t, r, http.MethodPost, "/announcements", token, `{
		"title": "Лекція",
		"category": "lecture",
		"description": "Опис"
	}`)

	id := decodeBody(t, w)["announcement"].(map[string]any)["id"].(string)

	// plain reads never move the counter
	for i := 0; i < 2; i++ {
		w = doJSON(t, r, http.MethodGet, "/announcements/"+id, "", "")

		a := decodeBody(t, w)["announcement"].(map[string]any)

		if a["viewCount"].(float64) != float64(i) {
			t.Fatalf("read %d: want %d views, got %v", i, i, a["viewCount"])
		}

		w = doJSON(t, r, http.MethodPost, "/announcements/"+id+"/view", "", "")

		if w.Code != http.StatusOK {
			t.Fatalf("view: status %d", w.Code)
		}
	}

	w = doJSON(t, r, http.MethodPost, "/announcements/missing/view", "", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("view of missing: status %d", w.Code)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	r := newTestRouter(t)

	authorToken, _ := registerAndLogin(t, r, "author@example.com")
	otherToken, _ := registerAndLogin(t, r, "other@example.com")

	w := doJSON(t, r, http.MethodPost, "/announcements", authorToken, `{
		"title": "Семінар",
		"category": "seminar",
		"description": "Опис"
	}`)

	id := decodeBody(t, w)["announcement"].(map[string]any)["id"].(string)

	w = doJSON(t, r, http.MethodPatch, "/announcements/"+id, otherToken, `{"title": "hijack"}`)

	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign patch: want 403, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/announcements/"+id, otherToken, "")

	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: want 403, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPatch, "/announcements/"+id, authorToken, `{"title": "Оновлений семінар"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("own patch: status %d body %s", w.Code, w.Body.String())
	}
}

func TestAuthRequiredForWrites(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/announcements", "", `{
		"title": "x", "category": "other", "description": "x"
	}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: want 401, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/me", "", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /me: want 401, got %d", w.Code)
	}
}

func TestValidationAggregation(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", "", `{
		"email": "not-an-email",
		"password": "abc",
		"confirmPassword": "abcd",
		"type": "company"
	}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d body %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	errObj := body["error"].(map[string]any)

	if errObj["code"] != "validation_failed" {
		t.Fatalf("want validation_failed, got %v", errObj["code"])
	}

	details := errObj["details"].(map[string]any)
	list := details["errors"].([]any)

	if len(list) < 5 {
		t.Fatalf("want aggregated errors, got %v", list)
	}
}

func TestDraftFlow(t *testing.T) {
	r := newTestRouter(t)

	token, _ := registerAndLogin(t, r, "co@example.com")

	w := doJSON(t, r, http.MethodGet, "/me/draft", token, "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("empty draft: want 404, got %d", w.Code)
	}

	// half-filled forms are accepted
	w = doJSON(t, r, http.MethodPut, "/me/draft", token, `{"title": "Початок..."}`)

	if w.Code != http.StatusOK {
		t.Fatalf("save draft: status %d body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/me/draft", token, "")

	if w.Code != http.StatusOK {
		t.Fatalf("load draft: status %d", w.Code)
	}

	draft := decodeBody(t, w)["draft"].(map[string]any)
	form := draft["form"].(map[string]any)

	if form["title"] != "Початок..." {
		t.Fatalf("bad draft form: %v", form)
	}

	w = doJSON(t, r, http.MethodDelete, "/me/draft", token, "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("clear draft: status %d", w.Code)
	}
}

func TestCatalogServedWithETag(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/catalog", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("catalog: status %d", w.Code)
	}

	etag := w.Header().Get("ETag")

	if etag == "" {
		t.Fatal("catalog response missing ETag")
	}

	body := decodeBody(t, w)
	cats := body["categories"].(map[string]any)

	if cats["lecture"] != "Лекція" {
		t.Fatalf("bad catalog payload: %v", cats)
	}

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("If-None-Match", etag)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("want 304, got %d", w2.Code)
	}
}

func TestListQueryPipeline(t *testing.T) {
	r := newTestRouter(t)

	token, _ := registerAndLogin(t, r, "co@example.com")

	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{
			"title": "Оголошення %d",
			"category": "lecture",
			"description": "Опис"
		}`, i)

		w := doJSON(t, r, http.MethodPost, "/announcements", token, body)

		if w.Code != http.StatusCreated {
			t.Fatalf("create %d: status %d", i, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/announcements?category=seminar", "", "")

	page := decodeBody(t, w)

	if page["totalItems"].(float64) != 0 {
		t.Fatalf("seminar filter must match nothing: %v", page["totalItems"])
	}

	w = doJSON(t, r, http.MethodGet, "/announcements?search=оголошення&perPage=2&page=2", "", "")

	page = decodeBody(t, w)

	if page["totalItems"].(float64) != 3 || page["page"].(float64) != 2 {
		t.Fatalf("bad page header: %v", page)
	}

	items := page["items"].([]any)

	if len(items) != 1 {
		t.Fatalf("want 1 item on page 2, got %d", len(items))
	}
}

func TestRefreshAndLogout(t *testing.T) {
	r := newTestRouter(t)

	registerAndLogin(t, r, "co@example.com")

	// capture the refresh cookie from a fresh login
	w := doJSON(t, r, http.MethodPost, "/auth/login", "", `{"email":"co@example.com","password":"secret1","rememberMe":true}`)

	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d", w.Code)
	}

	cookies := w.Result().Cookies()

	var refresh *http.Cookie

	for _, c := range cookies {
		if c.Name == "refresh_token" {
			refresh = c
		}
	}

	if refresh == nil {
		t.Fatal("login did not set refresh cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(refresh)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("refresh: status %d body %s", w2.Code, w2.Body.String())
	}

	if tok, _ := decodeBody(t, w2)["accessToken"].(string); tok == "" {
		t.Fatal("refresh returned no access token")
	}

	// the old session was rotated away; replaying the cookie fails
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(refresh)

	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req)

	if w3.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh: want 401, got %d", w3.Code)
	}
}
