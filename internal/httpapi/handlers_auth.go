package httpapi

import (
	"net/http"

	"github.com/Spok95/school-portal/internal/account"
	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	State    string             `json:"state"`
	Identity *identity.Identity `json:"identity"`
	User     *models.UserRecord `json:"user,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	a := agentFrom(r.Context())
	var in account.Input
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := a.acct.Register(r.Context(), in); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeSession(w, r, a, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	a := agentFrom(r.Context())
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if _, err := a.acct.Login(r.Context(), req.Email, req.Password); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeSession(w, r, a, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := agentFrom(r.Context()).acct.Logout(r.Context()); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, r, agentFrom(r.Context()), http.StatusOK)
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, a *agent, status int) {
	id, err := a.sess.Wait(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, sessionResponse{State: a.sess.State().String()})
		return
	}
	resp := sessionResponse{State: a.sess.State().String(), Identity: id}
	if id != nil {
		u, err := s.deps.Repo.GetUser(r.Context(), id.UID)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		resp.User = u
	}
	writeJSON(w, status, resp)
}
