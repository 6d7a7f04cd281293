package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"clubhouse/internal/adapters/email"
	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/adapters/http/perf"
	accountStore "clubhouse/internal/adapters/storage/account"
	attendanceStore "clubhouse/internal/adapters/storage/attendance"
	eventStore "clubhouse/internal/adapters/storage/event"
	participationStore "clubhouse/internal/adapters/storage/participation"
	profileStore "clubhouse/internal/adapters/storage/profile"
)

// Stores holds all storage dependencies.
type Stores struct {
	Accounts accountStore.Store
	Profiles profileStore.Store
	Events   eventStore.Store
	Records  attendanceStore.Store
	Requests participationStore.Store
}

// Options configures the HTTP surface. Zero values fall back to defaults.
type Options struct {
	StaticDir          string // empty serves no static files
	CSRF               middleware.CSRFOptions
	RateLimitPerSecond int
	SlowRequest        time.Duration
	Collector          *perf.Collector
	Sender             email.Sender // nil disables admin notices
	NotifyTo           string
	Now                func() time.Time
	GenerateID         func() string
}

// server carries the dependencies every handler reads.
type server struct {
	stores     Stores
	sessions   *middleware.SessionStore
	collector  *perf.Collector
	sender     email.Sender
	notifyTo   string
	now        func() time.Time
	generateID func() string
}

func newServer(s Stores, opts Options) *server {
	srv := &server{
		stores:     s,
		collector:  opts.Collector,
		sender:     opts.Sender,
		notifyTo:   opts.NotifyTo,
		now:        opts.Now,
		generateID: opts.GenerateID,
	}
	if srv.now == nil {
		srv.now = time.Now
	}
	if srv.generateID == nil {
		srv.generateID = func() string { return uuid.New().String() }
	}
	srv.sessions = middleware.NewSessionStore(srv.now)
	return srv
}

// NewMux wires the JSON API. ctx bounds background work such as the rate
// limiter sweep.
func NewMux(ctx context.Context, s Stores, opts Options) http.Handler {
	srv := newServer(s, opts)

	mux := http.NewServeMux()
	if opts.StaticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}
	srv.registerRoutes(mux)

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	limiter := middleware.NewRateLimiter(ctx, rate, time.Second)

	csrfOpts := opts.CSRF
	if len(csrfOpts.Key) == 0 {
		csrfOpts.Key = make([]byte, 32)
		rand.Read(csrfOpts.Key)
		slog.Warn("csrf_random_key", "detail", "form tokens will not survive a restart")
	}

	// Last listed runs first: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfOpts),
		middleware.Auth(srv.sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Collector, opts.SlowRequest),
	)
}
