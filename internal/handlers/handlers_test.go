package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/saasify/saasify-api/internal/auth"
	"github.com/saasify/saasify-api/internal/csrf"
	"github.com/saasify/saasify-api/internal/middleware"
	"github.com/saasify/saasify-api/internal/password"
	"github.com/saasify/saasify-api/internal/store/memory"
	"github.com/saasify/saasify-api/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	svc     *auth.Service
	codec   *token.Codec
	store   *memory.Store
	auth    *AuthHandler
	profile *ProfileHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	codec, err := token.NewCodec(testSecret)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	st := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := auth.NewService(st, password.NewBcryptHasher(bcrypt.MinCost), codec, logger)
	cookies := SessionCookies{Secure: false}

	return &fixture{
		svc:     svc,
		codec:   codec,
		store:   st,
		auth:    NewAuthHandler(svc, cookies, logger),
		profile: NewProfileHandler(svc, cookies, logger),
	}
}

func (f *fixture) signup(t *testing.T, email, pass, name string) (auth.Profile, *http.Cookie) {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"`+email+`","password":"`+pass+`","name":"`+name+`"}`))
	f.auth.Signup(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", w.Code, w.Body.String())
	}

	var profile auth.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode signup body: %v", err)
	}
	return profile, sessionCookie(t, w)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

// authed wraps a profile handler in the auth middleware, the way the router does.
func (f *fixture) authed(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(f.codec, nil)(h)
}

func TestSignupHandler(t *testing.T) {
	f := newFixture(t)

	profile, cookie := f.signup(t, "ann@example.com", "password1", "Ann")
	if profile.Email != "ann@example.com" || profile.Name != "Ann" || profile.Role != "user" {
		t.Fatalf("profile = %+v", profile)
	}
	if profile.ID == "" {
		t.Fatal("profile has no id")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("session cookie attributes wrong: %+v", cookie)
	}
	if _, err := f.codec.Verify(cookie.Value); err != nil {
		t.Fatalf("session cookie does not verify: %v", err)
	}
}

func TestSignupHandler_Rejections(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "taken@example.com", "password1", "First")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"invalid json", `{"email":`, http.StatusBadRequest, "Invalid payload"},
		{"short password", `{"email":"a@x.com","password":"short","name":"Ann"}`, http.StatusBadRequest, "Invalid payload"},
		{"bad email", `{"email":"nope","password":"password1","name":"Ann"}`, http.StatusBadRequest, "Invalid payload"},
		{"duplicate email", `{"email":"TAKEN@example.com","password":"password1","name":"Ann"}`, http.StatusConflict, "Email already in use"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(tt.body))
			f.auth.Signup(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.wantMsg) {
				t.Fatalf("body = %s, want message %q", w.Body.String(), tt.wantMsg)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	f := newFixture(t)
	created, _ := f.signup(t, "ann@example.com", "password1", "Ann")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ann@example.com","password":"password1"}`))
	f.auth.Login(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var profile auth.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if profile.ID != created.ID {
		t.Fatalf("login id = %s, want %s", profile.ID, created.ID)
	}
	sessionCookie(t, w)
}

func TestLoginHandler_SameAnswerForBothFailureModes(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "ann@example.com", "password1", "Ann")

	bodies := map[string]string{
		"wrong password":    `{"email":"ann@example.com","password":"wrong-pass"}`,
		"nonexistent email": `{"email":"ghost@example.com","password":"password1"}`,
	}

	var responses []string
	for name, body := range bodies {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		f.auth.Login(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, w.Code)
		}
		responses = append(responses, w.Body.String())
	}

	if responses[0] != responses[1] {
		t.Fatalf("failure responses differ: %q vs %q", responses[0], responses[1])
	}
}

func TestLogoutHandler(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	f.auth.Logout(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	cleared := sessionCookie(t, w)
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", cleared)
	}
}

func TestMeHandler(t *testing.T) {
	f := newFixture(t)
	created, cookie := f.signup(t, "ann@example.com", "password1", "Ann")

	decode := func(w *httptest.ResponseRecorder) map[string]*auth.Identity {
		t.Helper()
		var body map[string]*auth.Identity
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body
	}

	// With a valid cookie the identity comes back.
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.AddCookie(cookie)
	f.auth.Me(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if user := decode(w)["user"]; user == nil || user.ID != created.ID {
		t.Fatalf("user = %+v, want id %s", decode(w)["user"], created.ID)
	}

	// Without a cookie, and with garbage, the answer is still 200 with null.
	for name, value := range map[string]string{"absent": "", "garbage": "not-a-token"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if value != "" {
			r.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: value})
		}
		f.auth.Me(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", name, w.Code)
		}
		if user := decode(w)["user"]; user != nil {
			t.Fatalf("%s: user = %+v, want null", name, user)
		}
	}
}

func TestOAuthStub(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/auth/oauth/google/start", nil)
	f.auth.OAuthStub(w, r)

	if w.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", w.Code)
	}
	if !strings.Contains(w.Body.String(), "OAuth not implemented yet") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestProfileGet(t *testing.T) {
	f := newFixture(t)
	created, cookie := f.signup(t, "ann@example.com", "password1", "Ann")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
	r.AddCookie(cookie)
	f.authed(f.profile.Get).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var body map[string]auth.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user"].ID != created.ID || body["user"].Email != "ann@example.com" {
		t.Fatalf("user = %+v", body["user"])
	}
	if strings.Contains(strings.ToLower(w.Body.String()), "password") {
		t.Fatalf("profile response leaks password material: %s", w.Body.String())
	}
}

func TestProfileGet_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
	f.authed(f.profile.Get).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestProfileUpdate(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.signup(t, "ann@example.com", "password1", "Ann")
	f.signup(t, "bob@example.com", "password1", "Bob")

	do := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/api/profile/me", strings.NewReader(body))
		r.AddCookie(cookie)
		f.authed(f.profile.Update).ServeHTTP(w, r)
		return w
	}

	w := do(`{"name":"Ann Lee","email":"ann.lee@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Profile updated successfully") ||
		!strings.Contains(w.Body.String(), "ann.lee@example.com") {
		t.Fatalf("body = %s", w.Body.String())
	}

	if w := do(`{"name":"","email":"x@example.com"}`); w.Code != http.StatusBadRequest ||
		!strings.Contains(w.Body.String(), "Name and email are required") {
		t.Fatalf("missing name: status = %d, body %s", w.Code, w.Body.String())
	}

	if w := do(`{"name":"Ann","email":"bob@example.com"}`); w.Code != http.StatusBadRequest ||
		!strings.Contains(w.Body.String(), "Email is already in use") {
		t.Fatalf("taken email: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestProfileChangePassword(t *testing.T) {
	f := newFixture(t)
	_, cookie := f.signup(t, "ann@example.com", "password1", "Ann")

	do := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/api/profile/me/password", strings.NewReader(body))
		r.AddCookie(cookie)
		f.authed(f.profile.ChangePassword).ServeHTTP(w, r)
		return w
	}

	if w := do(`{"currentPassword":"wrong","newPassword":"newpassword"}`); w.Code != http.StatusBadRequest ||
		!strings.Contains(w.Body.String(), "Current password is incorrect") {
		t.Fatalf("wrong current: status = %d, body %s", w.Code, w.Body.String())
	}

	if w := do(`{"currentPassword":"password1","newPassword":"tiny"}`); w.Code != http.StatusBadRequest ||
		!strings.Contains(w.Body.String(), "at least 6 characters") {
		t.Fatalf("short new: status = %d, body %s", w.Code, w.Body.String())
	}

	if w := do(`{"currentPassword":"password1","newPassword":"newpassword"}`); w.Code != http.StatusOK {
		t.Fatalf("change: status = %d, body %s", w.Code, w.Body.String())
	}

	// Old password no longer logs in; the new one does.
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ann@example.com","password":"password1"}`))
	f.auth.Login(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("old password still accepted: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ann@example.com","password":"newpassword"}`))
	f.auth.Login(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("new password rejected: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestProfileDelete(t *testing.T) {
	f := newFixture(t)
	created, cookie := f.signup(t, "ann@example.com", "password1", "Ann")

	do := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/api/profile/me", strings.NewReader(body))
		r.AddCookie(cookie)
		f.authed(f.profile.Delete).ServeHTTP(w, r)
		return w
	}

	if w := do(`{}`); w.Code != http.StatusBadRequest ||
		!strings.Contains(w.Body.String(), "Password is required to delete account") {
		t.Fatalf("missing password: status = %d, body %s", w.Code, w.Body.String())
	}

	if w := do(`{"password":"wrong"}`); w.Code != http.StatusBadRequest ||
		!strings.Contains(w.Body.String(), "Password is incorrect") {
		t.Fatalf("wrong password: status = %d, body %s", w.Code, w.Body.String())
	}

	w := do(`{"password":"password1"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Account deleted successfully") {
		t.Fatalf("delete: status = %d, body %s", w.Code, w.Body.String())
	}
	cleared := sessionCookie(t, w)
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("session cookie not cleared on delete: %+v", cleared)
	}

	if _, err := f.store.GetByID(context.Background(), created.ID); err == nil {
		t.Fatal("record still present after delete")
	}
}

func TestCSRFTokenHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewCSRFHandler(csrf.NewGuard(false), logger)

	w := httptest.NewRecorder()
	h.Token(w, httptest.NewRequest(http.MethodGet, "/api/csrf/token", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	var cookieValue string
	for _, c := range w.Result().Cookies() {
		if c.Name == csrf.CookieName {
			cookieValue = c.Value
		}
	}
	if cookieValue == "" || cookieValue != body["csrfToken"] {
		t.Fatalf("cookie %q and body token %q must match", cookieValue, body["csrfToken"])
	}
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}
