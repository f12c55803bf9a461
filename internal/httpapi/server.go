// Package httpapi is the portal's JSON API. Each browser gets its own agent,
// keyed by a cookie: an identity session, the session context that watches
// it and an account service bound to both.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/account"
	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/logging"
	"github.com/Spok95/school-portal/internal/metrics"
	"github.com/Spok95/school-portal/internal/records"
	"github.com/Spok95/school-portal/internal/store"
)

type Deps struct {
	Identity *identity.Service
	Repo     *records.Repo
	Pinger   store.Pinger
	Notifier account.SchoolNotifier
	Log      *zap.Logger
	Location *time.Location

	// агент без запросов дольше IdleTTL закрывается при очередном Sweep
	IdleTTL      time.Duration
	SecureCookie bool
	Now          func() time.Time
}

type Server struct {
	deps   Deps
	log    *zap.Logger
	now    func() time.Time
	locks  *account.KeyLock
	agents *agents
}

func New(d Deps) *Server {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.IdleTTL <= 0 {
		d.IdleTTL = 30 * time.Minute
	}
	s := &Server{
		deps:   d,
		log:    logging.OrNop(d.Log),
		now:    d.Now,
		locks:  account.NewKeyLock(),
		agents: newAgents(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withAgent)

		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/session", s.handleSession)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/schools/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetSchool)
				r.Patch("/", s.handlePatchSchool)
				r.Post("/staff", s.handleAddStaff)
				r.Delete("/staff/{nationalId}", s.handleRemoveStaff)
				r.Get("/staff.xlsx", s.handleStaffExport)
			})
			r.Get("/users/{uid}", s.handleGetUser)
			r.Patch("/users/{uid}", s.handlePatchUser)
			r.Get("/settings", s.handleGetSettings)
			r.Patch("/settings", s.handlePatchSettings)
		})
	})
	return r
}

// Sweep closes agents idle for longer than IdleTTL. Run it from the job runner.
func (s *Server) Sweep(context.Context) error {
	n := s.agents.sweep(s.now().Add(-s.deps.IdleTTL))
	if n > 0 {
		s.log.Debug("idle sessions closed", zap.Int("count", n))
	}
	return nil
}

// Close releases every agent.
func (s *Server) Close() { s.agents.closeAll() }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pinger == nil {
		_, _ = w.Write([]byte("ok"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := s.deps.Pinger.Ping(ctx); err != nil {
		http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		t0 := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(t0)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type HTTPServer struct {
	srv  *http.Server
	done chan struct{}
}

// Start serves h on addr until ctx is done.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) *HTTPServer {
	log = logging.OrNop(log)
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	hs := &HTTPServer{srv: srv, done: make(chan struct{})}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	go func() {
		defer close(hs.done)
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return hs
}

// Done is closed once the server has shut down.
func (h *HTTPServer) Done() <-chan struct{} { return h.done }
