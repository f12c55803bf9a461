package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/account"
	"github.com/Spok95/school-portal/internal/ctxutil"
	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/metrics"
	"github.com/Spok95/school-portal/internal/session"
)

const sessionCookie = "portal_sid"

type agent struct {
	ident *identity.Session
	sess  *session.Context
	acct  *account.Service

	mu       sync.Mutex
	lastSeen time.Time
}

func (a *agent) touch(now time.Time) {
	a.mu.Lock()
	a.lastSeen = now
	a.mu.Unlock()
}

func (a *agent) idleSince(t time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSeen.Before(t)
}

type agents struct {
	mu   sync.Mutex
	byID map[string]*agent
}

func newAgents() *agents { return &agents{byID: make(map[string]*agent)} }

func (as *agents) get(id string) *agent {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.byID[id]
}

func (as *agents) put(id string, a *agent) {
	as.mu.Lock()
	as.byID[id] = a
	n := len(as.byID)
	as.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))
}

func (as *agents) count() int {
	as.mu.Lock()
	defer as.mu.Unlock()
	return len(as.byID)
}

func (as *agents) closeAll() {
	as.mu.Lock()
	all := as.byID
	as.byID = make(map[string]*agent)
	as.mu.Unlock()

	for _, a := range all {
		a.sess.Close()
	}
	metrics.ActiveSessions.Set(0)
}

// sweep closes agents last seen before cutoff and returns how many.
func (as *agents) sweep(cutoff time.Time) int {
	as.mu.Lock()
	var stale []*agent
	for id, a := range as.byID {
		if a.idleSince(cutoff) {
			stale = append(stale, a)
			delete(as.byID, id)
		}
	}
	n := len(as.byID)
	as.mu.Unlock()

	for _, a := range stale {
		a.sess.Close()
	}
	metrics.ActiveSessions.Set(float64(n))
	return len(stale)
}

func (s *Server) newAgent() *agent {
	ident := s.deps.Identity.NewSession()
	acct := account.New(ident, s.deps.Repo, s.log,
		account.WithSchoolLocks(s.locks),
		account.WithNotifier(s.deps.Notifier),
		account.WithClock(s.now),
	)
	return &agent{
		ident: ident,
		sess:  session.Start(ident, s.log),
		acct:  acct,
	}
}

type agentKey struct{}

func agentFrom(ctx context.Context) *agent {
	a, _ := ctx.Value(agentKey{}).(*agent)
	return a
}

// withAgent attaches the caller's agent, creating one and setting the cookie
// for new clients. A bearer ID token signs the agent in when it is not
// already signed in with that token.
func (s *Server) withAgent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var a *agent
		if c, err := r.Cookie(sessionCookie); err == nil {
			a = s.agents.get(c.Value)
		}
		if a == nil {
			id := uuid.NewString()
			a = s.newAgent()
			s.agents.put(id, a)
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.deps.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}
		a.touch(s.now())

		if tok := bearerToken(r.Header.Get("Authorization")); tok != "" {
			if cur := a.ident.Current(); cur == nil || cur.Token != tok {
				if _, err := a.ident.Restore(r.Context(), tok); err != nil {
					s.log.Debug("token restore failed", zap.Error(err))
					writeError(w, http.StatusUnauthorized, "invalid_token", "")
					return
				}
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), agentKey{}, a)))
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := agentFrom(r.Context()).sess.Current()
		if err != nil || id == nil {
			s.writeErr(w, r, errUnauthenticated)
			return
		}
		ctx := ctxutil.WithUID(r.Context(), id.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
