package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/citypulse/citypulse/internal/auth"
	"github.com/citypulse/citypulse/internal/database"
	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/store"
)

func newAuthTestHandler(t *testing.T) (*AuthHandler, *store.PublisherStore, *store.CityStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenService("test-secret", time.Hour)
	publishers := store.NewPublisherStore(db)
	h := NewAuthHandler(store.NewUserStore(db), publishers, tokens, logger)
	return h, publishers, store.NewCityStore(db)
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestSignupCreatesReader(t *testing.T) {
	h, _, _ := newAuthTestHandler(t)

	rr := postJSON(t, h.Signup, "/auth/signup", `{"email":"Reader@Test.com","password":"secret1","full_name":"Test Reader"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp authResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Role != model.RoleReader {
		t.Errorf("role = %q, self-service signup must create readers", resp.User.Role)
	}
	if resp.User.Email != "reader@test.com" {
		t.Errorf("email = %q, want lowercased", resp.User.Email)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	h, _, _ := newAuthTestHandler(t)

	postJSON(t, h.Signup, "/auth/signup", `{"email":"dup@test.com","password":"secret1"}`)
	rr := postJSON(t, h.Signup, "/auth/signup", `{"email":"dup@test.com","password":"secret1"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
}

func TestSignupRejectsBadInput(t *testing.T) {
	h, _, _ := newAuthTestHandler(t)

	if rr := postJSON(t, h.Signup, "/auth/signup", `{"email":"not-an-email","password":"secret1"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad email: status = %d, want 400", rr.Code)
	}
	if rr := postJSON(t, h.Signup, "/auth/signup", `{"email":"a@test.com","password":"short"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("short password: status = %d, want 400", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	h, _, _ := newAuthTestHandler(t)
	postJSON(t, h.Signup, "/auth/signup", `{"email":"reader@test.com","password":"secret1"}`)

	rr := postJSON(t, h.Login, "/auth/login", `{"email":"reader@test.com","password":"secret1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	// Wrong password and unknown account are indistinguishable.
	wrongPass := postJSON(t, h.Login, "/auth/login", `{"email":"reader@test.com","password":"nope123"}`)
	unknown := postJSON(t, h.Login, "/auth/login", `{"email":"ghost@test.com","password":"secret1"}`)
	if wrongPass.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Errorf("statuses = %d, %d; want 401 for both", wrongPass.Code, unknown.Code)
	}
	if wrongPass.Body.String() != unknown.Body.String() {
		t.Error("login failures should not reveal whether the account exists")
	}
}

func TestLoginResolvesPublisherCity(t *testing.T) {
	h, publishers, cities := newAuthTestHandler(t)

	city, err := cities.Create("Springfield", "US")
	if err != nil {
		t.Fatalf("seed city: %v", err)
	}
	// Admin-provisioned publisher account; login compares bcrypt hashes, so
	// seed the owner with one.
	if _, err := publishers.CreateWithOwner(city.ID, "Gazette", "owner@gazette.test", mustHash(t, "secret1"), model.LicenseActive); err != nil {
		t.Fatalf("seed publisher: %v", err)
	}

	rr := postJSON(t, h.Login, "/auth/login", `{"email":"owner@gazette.test","password":"secret1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp authResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Role != model.RolePublisher {
		t.Errorf("role = %q, want publisher", resp.User.Role)
	}
	if resp.User.CityID != city.ID {
		t.Errorf("city_id = %q, want %q", resp.User.CityID, city.ID)
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestMeRequiresIdentity(t *testing.T) {
	h, _, _ := newAuthTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	rr := httptest.NewRecorder()
	h.Me(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without identity", rr.Code)
	}
}
