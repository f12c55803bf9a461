package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/school-portal/internal/ctxutil"
	"github.com/Spok95/school-portal/internal/export"
	"github.com/Spok95/school-portal/internal/models"
	"github.com/Spok95/school-portal/internal/records"
)

// member returns the caller's user record if it belongs to school. With
// adminOnly the caller must also be the school's admin.
func (s *Server) member(ctx context.Context, school string, adminOnly bool) (*models.UserRecord, error) {
	uid, _ := ctxutil.UID(ctx)
	u, err := s.deps.Repo.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil || u.SchoolName != school {
		return nil, errForbidden
	}
	if adminOnly && u.Role != models.Admin {
		return nil, errForbidden
	}
	return u, nil
}

func (s *Server) handleGetSchool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.member(r.Context(), name, false); err != nil {
		s.writeErr(w, r, err)
		return
	}
	school, err := s.deps.Repo.GetSchool(r.Context(), name)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if school == nil {
		s.writeErr(w, r, records.ErrSchoolNotFound)
		return
	}
	writeJSON(w, http.StatusOK, school)
}

func (s *Server) handlePatchSchool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.member(r.Context(), name, true); err != nil {
		s.writeErr(w, r, err)
		return
	}
	var updates map[string]any
	if err := decodeJSON(w, r, &updates); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.deps.Repo.UpdateSchoolInfo(r.Context(), name, updates); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddStaff(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.member(r.Context(), name, true); err != nil {
		s.writeErr(w, r, err)
		return
	}
	var e models.StaffEntry
	if err := decodeJSON(w, r, &e); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if e.CreatedAt == nil {
		now := s.now().UTC()
		e.CreatedAt = &now
	}
	if err := s.deps.Repo.AddStaffMember(r.Context(), name, e); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleRemoveStaff(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.member(r.Context(), name, true); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.deps.Repo.RemoveStaffMember(r.Context(), name, chi.URLParam(r, "nationalId")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStaffExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.member(r.Context(), name, true); err != nil {
		s.writeErr(w, r, err)
		return
	}
	staff, err := s.deps.Repo.ListStaff(r.Context(), name)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteStaff(&buf, staff, s.deps.Location); err != nil {
		s.writeErr(w, r, err)
		return
	}
	filename := export.StaffFilename(name, s.now().In(s.deps.Location))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) self(r *http.Request) (string, error) {
	uid, _ := ctxutil.UID(r.Context())
	if chi.URLParam(r, "uid") != uid {
		return "", errForbidden
	}
	return uid, nil
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	uid, err := s.self(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	u, err := s.deps.Repo.GetUser(r.Context(), uid)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if u == nil {
		s.writeErr(w, r, records.ErrUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	uid, err := s.self(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	var updates map[string]any
	if err := decodeJSON(w, r, &updates); err != nil {
		s.writeErr(w, r, err)
		return
	}
	// роль, школу и почту сам пользователь не меняет
	for _, k := range []string{"role", "schoolName", "email"} {
		if _, ok := updates[k]; ok {
			s.writeErr(w, r, errForbidden)
			return
		}
	}
	if err := s.deps.Repo.UpdateUser(r.Context(), uid, updates); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Repo.GetSystemSettings(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	uid, _ := ctxutil.UID(r.Context())
	u, err := s.deps.Repo.GetUser(r.Context(), uid)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if u == nil || u.Role != models.Admin {
		s.writeErr(w, r, errForbidden)
		return
	}
	var updates map[string]any
	if err := decodeJSON(w, r, &updates); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.deps.Repo.UpdateSystemSettings(r.Context(), updates); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
