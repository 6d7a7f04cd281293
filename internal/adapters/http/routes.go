package web

import (
	"net/http"

	"clubhouse/internal/adapters/http/middleware"
)

func (s *server) registerRoutes(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }

	// Session
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.Handle("GET /api/me", authed(s.handleMe))
	mux.Handle("POST /api/account/password", authed(s.handleChangePassword))

	// Profile views
	mux.Handle("GET /api/profiles/{id}/events", authed(s.handleProfileEvents))
	mux.Handle("GET /api/profiles/{id}/dashboard", authed(s.handleDashboard))
	mux.Handle("GET /api/profiles/{id}/stats", authed(s.handleStats))
	mux.Handle("GET /api/events/{id}/friends", authed(s.handleFriends))

	// Self-service lifecycle
	mux.Handle("POST /api/attendance/attending", authed(s.handleSetAttending))
	mux.Handle("POST /api/attendance/request", authed(s.handleRequestParticipation))
	mux.Handle("POST /api/payments/submit", authed(s.handleSubmitPayment))

	// Admin
	mux.Handle("GET /api/admin/participation", admin(s.handleParticipationQueue))
	mux.Handle("POST /api/admin/participation/decide", admin(s.handleDecideParticipation))
	mux.Handle("POST /api/admin/attendance/attended", admin(s.handleSetAttended))
	mux.Handle("POST /api/admin/events/{id}/mark-all-attended", admin(s.handleMarkAllAttended))
	mux.Handle("GET /api/admin/payments", admin(s.handlePaymentQueue))
	mux.Handle("POST /api/admin/payments/decide", admin(s.handleDecidePayments))
	mux.Handle("POST /api/admin/payments/fee-due", admin(s.handleSetFeeDue))
	mux.Handle("GET /api/admin/events", admin(s.handleListEvents))
	mux.Handle("POST /api/admin/events", admin(s.handleCreateEvent))
	mux.Handle("POST /api/admin/events/{id}", admin(s.handleEditEvent))
	mux.Handle("POST /api/admin/events/{id}/cancel", admin(s.handleCancelEvent))
	mux.Handle("POST /api/admin/profiles", admin(s.handleSaveProfile))
	mux.Handle("POST /api/admin/accounts", admin(s.handleCreateAccount))
	mux.Handle("GET /api/admin/perf", admin(s.handlePerf))
}
