package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/domain/apperr"
)

// mdRenderer renders event descriptions. Raw HTML in the source is escaped
// because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		slog.Warn("markdown_render_failed", "error", err)
		return ""
	}
	return buf.String()
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// strictDecode decodes a JSON body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("malformed request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// writeError maps an apperr kind to its status. Anything unclassified is an
// internal error.
func writeError(w http.ResponseWriter, err error) {
	status := 0
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	default:
		internalError(w, err)
		return
	}
	writeJSON(w, status, map[string]string{"error": apperr.Reason(err)})
}

// internalError logs the real error and returns a generic message.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// parseInstant reads an RFC 3339 timestamp and normalizes it to UTC.
func parseInstant(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation(field + " must be an RFC 3339 timestamp")
	}
	return t.UTC(), nil
}

// parseDate reads a calendar date as midnight UTC.
func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation(field + " must be a date (YYYY-MM-DD)")
	}
	return t, nil
}

// queryInt reads an integer query parameter, returning fallback when absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation(name + " must be a number")
	}
	return n, nil
}

func actorFrom(sess middleware.Session) orchestrators.Actor {
	return orchestrators.Actor{AccountID: sess.AccountID, Role: sess.Role}
}

// session returns the caller's session. Routes behind RequireAuth always have one.
func session(r *http.Request) middleware.Session {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess
}

// authorizeProfileRead lets admins read any profile and everyone else only
// the profiles they may act for.
func (s *server) authorizeProfileRead(r *http.Request, profileID string) error {
	sess := session(r)
	if sess.IsAdmin() {
		return nil
	}
	_, err := orchestrators.AuthorizeActor(r.Context(), actorFrom(sess), profileID, s.stores.Profiles)
	return err
}

// --- Session ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccountID  string        `json:"accountId"`
	Email      string        `json:"email"`
	Role       string        `json:"role"`
	ProfileIDs []string      `json:"profileIds"`
	Profiles   []profileJSON `json:"profiles,omitempty"`
}

// handleLogin handles POST /api/login
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{
		AccountStore: s.stores.Accounts,
		Profiles:     s.stores.Profiles,
		Now:          s.now,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	var ids []string
	seen := map[string]bool{}
	for _, p := range result.Profiles {
		for _, id := range append([]string{p.ID}, p.ChildIDs...) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	token, err := s.sessions.Create(middleware.Session{
		AccountID:  result.AccountID,
		Email:      result.Email,
		Role:       result.Role,
		ProfileIDs: ids,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)

	resp := sessionResponse{AccountID: result.AccountID, Email: result.Email, Role: result.Role, ProfileIDs: ids}
	for _, p := range result.Profiles {
		resp.Profiles = append(resp.Profiles, toProfileJSON(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout handles POST /api/logout
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		s.sessions.Delete(token)
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		slog.Info("auth_event", "event", "logout", "account_id", sess.AccountID)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /api/me
func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	writeJSON(w, http.StatusOK, sessionResponse{
		AccountID:  sess.AccountID,
		Email:      sess.Email,
		Role:       sess.Role,
		ProfileIDs: sess.ProfileIDs,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// handleChangePassword handles POST /api/account/password
func (s *server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		AccountID:       session(r).AccountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}, s.stores.Accounts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
