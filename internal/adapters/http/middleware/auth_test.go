package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clubhouse/internal/domain/account"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestSessionStore_Expiry verifies sessions expire after SessionTTL.
func TestSessionStore_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ss := NewSessionStore(func() time.Time { return now })

	token, err := ss.Create(Session{AccountID: "a1", Role: account.RolePlayer, ProfileIDs: []string{"p1"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s, ok := ss.Get(token)
	if !ok || s.AccountID != "a1" || !s.CreatedAt.Equal(now) {
		t.Fatalf("Get = %+v, %v", s, ok)
	}

	now = now.Add(SessionTTL + time.Second)
	if _, ok := ss.Get(token); ok {
		t.Error("session should have expired")
	}
	now = now.Add(-SessionTTL)
	if _, ok := ss.Get(token); ok {
		t.Error("expired session should have been removed")
	}
}

// TestSessionStore_Delete verifies logout removes the session.
func TestSessionStore_Delete(t *testing.T) {
	ss := NewSessionStore(nil)
	token, _ := ss.Create(Session{AccountID: "a1", Role: account.RoleAdmin})
	ss.Delete(token)
	if _, ok := ss.Get(token); ok {
		t.Error("deleted session still returned")
	}
}

// TestAuth_AttachesSession verifies a valid cookie populates the context.
func TestAuth_AttachesSession(t *testing.T) {
	ss := NewSessionStore(nil)
	token, _ := ss.Create(Session{AccountID: "a1", Role: account.RolePlayer})

	var got Session
	h := Auth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSessionFromContext(r.Context())
	}))
	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.AccountID != "a1" {
		t.Errorf("session = %+v", got)
	}
}

// TestRequireAuth verifies anonymous requests get 401.
func TestRequireAuth(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireAuth(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/api/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

// TestRequireAdmin verifies role gating.
func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"player", &Session{AccountID: "a1", Role: account.RolePlayer}, http.StatusForbidden},
		{"admin", &Session{AccountID: "a2", Role: account.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/payments", nil)
			if tt.session != nil {
				req = req.WithContext(ContextWithSession(req.Context(), *tt.session))
			}
			rr := httptest.NewRecorder()
			RequireAdmin(okHandler()).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

// TestSessionCookie verifies cookie flags.
func TestSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "tok")
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "tok" || !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie: %+v", cookies)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	if SessionToken(req) != "tok" {
		t.Error("SessionToken did not read the cookie")
	}

	rr = httptest.NewRecorder()
	ClearSessionCookie(rr)
	if c := rr.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Errorf("clear cookie = %+v", c)
	}
}
