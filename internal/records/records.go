// Package records maps the portal's record types onto store paths:
//
//	users/{uid}
//	schools/{schoolName}
//	schools/{schoolName}/staff/{nationalId}
//	system/settings
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Spok95/school-portal/internal/models"
	"github.com/Spok95/school-portal/internal/store"
)

var (
	ErrSchoolNotFound = errors.New("school not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrImmutableField = errors.New("field cannot be changed")
	ErrMissingStaffID = errors.New("staff entry needs a national id")
	ErrInvalidRole    = errors.New("invalid role")
)

const SettingsPath = "system/settings"

func UserPath(uid string) string          { return store.Join("users", uid) }
func SchoolPath(name string) string       { return store.Join("schools", name) }
func SchoolInfoPath(name string) string   { return store.Join("schools", name, "schoolInfo") }
func StaffPath(school, key string) string { return store.Join("schools", school, "staff", key) }
func staffListPath(school string) string  { return store.Join("schools", school, "staff") }

// Repo reads and writes typed records. It holds no cache; every read goes to
// the store.
type Repo struct {
	store store.Store
}

func New(s store.Store) *Repo {
	return &Repo{store: s}
}

func (r *Repo) GetUser(ctx context.Context, uid string) (*models.UserRecord, error) {
	var u models.UserRecord
	found, err := store.ReadInto(ctx, r.store, UserPath(uid), &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) CreateUser(ctx context.Context, u models.UserRecord) error {
	return r.store.Write(ctx, UserPath(u.UID), u)
}

func (r *Repo) DeleteUser(ctx context.Context, uid string) error {
	return r.store.Delete(ctx, UserPath(uid))
}

// UpdateUser merges updates into users/{uid}. uid and createdAt are fixed.
func (r *Repo) UpdateUser(ctx context.Context, uid string, updates map[string]any) error {
	if err := rejectKeys(updates, models.ImmutableUserFields); err != nil {
		return err
	}
	if role, ok := updates["role"]; ok {
		if s, _ := role.(string); !models.Role(s).Valid() {
			return fmt.Errorf("role %v: %w", role, ErrInvalidRole)
		}
	}
	u, err := r.GetUser(ctx, uid)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	return r.store.Patch(ctx, UserPath(uid), updates)
}

func (r *Repo) GetSchool(ctx context.Context, name string) (*models.SchoolRecord, error) {
	if err := checkKey("school name", name); err != nil {
		return nil, err
	}
	var s models.SchoolRecord
	found, err := store.ReadInto(ctx, r.store, SchoolPath(name), &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) SchoolExists(ctx context.Context, name string) (bool, error) {
	if err := checkKey("school name", name); err != nil {
		return false, err
	}
	_, found, err := r.store.Read(ctx, SchoolPath(name))
	return found, err
}

// CreateSchool overwrites schools/{name}.
func (r *Repo) CreateSchool(ctx context.Context, s models.SchoolRecord) error {
	if err := checkKey("school name", s.SchoolInfo.Name); err != nil {
		return err
	}
	for id := range s.Staff {
		if err := checkKey("national id", id); err != nil {
			return err
		}
	}
	return r.store.Write(ctx, SchoolPath(s.SchoolInfo.Name), s)
}

// UpdateSchoolInfo merges updates into schools/{name}/schoolInfo. name,
// createdAt and createdBy are fixed.
func (r *Repo) UpdateSchoolInfo(ctx context.Context, name string, updates map[string]any) error {
	if err := rejectKeys(updates, models.ImmutableSchoolInfoFields); err != nil {
		return err
	}
	ok, err := r.SchoolExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSchoolNotFound
	}
	return r.store.Patch(ctx, SchoolInfoPath(name), updates)
}

// AddStaffMember writes the entry under its national id, replacing any entry
// with the same id.
func (r *Repo) AddStaffMember(ctx context.Context, school string, e models.StaffEntry) error {
	if strings.TrimSpace(e.NationalID) == "" {
		return ErrMissingStaffID
	}
	if err := checkKey("national id", e.NationalID); err != nil {
		return err
	}
	ok, err := r.SchoolExists(ctx, school)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSchoolNotFound
	}
	return r.store.Write(ctx, StaffPath(school, e.NationalID), e)
}

func (r *Repo) RemoveStaffMember(ctx context.Context, school, nationalID string) error {
	if err := checkKey("school name", school); err != nil {
		return err
	}
	if err := checkKey("national id", nationalID); err != nil {
		return err
	}
	return r.store.Delete(ctx, StaffPath(school, nationalID))
}

// ListStaff returns the school's staff sorted by name, then national id.
func (r *Repo) ListStaff(ctx context.Context, school string) ([]models.StaffEntry, error) {
	ok, err := r.SchoolExists(ctx, school)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSchoolNotFound
	}
	var staff map[string]models.StaffEntry
	if _, err := store.ReadInto(ctx, r.store, staffListPath(school), &staff); err != nil {
		return nil, err
	}
	out := make([]models.StaffEntry, 0, len(staff))
	for _, e := range staff {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].NationalID < out[j].NationalID
	})
	return out, nil
}

func (r *Repo) GetSystemSettings(ctx context.Context) (map[string]any, error) {
	raw, found, err := r.store.Read(ctx, SettingsPath)
	if err != nil || !found {
		return map[string]any{}, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

func (r *Repo) UpdateSystemSettings(ctx context.Context, updates map[string]any) error {
	return r.store.Patch(ctx, SettingsPath, updates)
}

// checkKey rejects values that would not map to exactly one path segment.
func checkKey(what, v string) error {
	if err := store.ValidKey(v); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func rejectKeys(updates map[string]any, fixed []string) error {
	for k := range updates {
		if slices.Contains(fixed, k) {
			return fmt.Errorf("%s: %w", k, ErrImmutableField)
		}
	}
	return nil
}
