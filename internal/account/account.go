// Package account registers schools and staff accounts and signs users in.
//
// Registration is a saga over two services that share no transaction: the
// identity provider and the record store. A failure part way through rolls
// back what was already written, best effort.
package account

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/logging"
	"github.com/Spok95/school-portal/internal/models"
	"github.com/Spok95/school-portal/internal/records"
	"github.com/Spok95/school-portal/internal/validation"
)

// SchoolNotifier is told about every school created by a successful
// registration.
type SchoolNotifier interface {
	SchoolRegistered(ctx context.Context, school models.SchoolRecord)
}

type Service struct {
	idp      identity.Provider
	repo     *records.Repo
	log      *zap.Logger
	now      func() time.Time
	locks    *KeyLock
	notifier SchoolNotifier
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithNotifier(n SchoolNotifier) Option  { return func(s *Service) { s.notifier = n } }

// WithSchoolLocks shares one lock table between services, so that two
// sessions of the same process cannot register the same school name at once.
func WithSchoolLocks(l *KeyLock) Option { return func(s *Service) { s.locks = l } }

func New(idp identity.Provider, repo *records.Repo, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		idp:   idp,
		repo:  repo,
		log:   logging.OrNop(log),
		now:   time.Now,
		locks: NewKeyLock(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var validationKinds = map[validation.Kind]Kind{
	validation.MissingField:     MissingField,
	validation.InvalidEmail:     InvalidEmail,
	validation.WeakPassword:     WeakPassword,
	validation.PasswordMismatch: PasswordMismatch,
	validation.InvalidPhone:     InvalidPhone,
}

func fromValidation(op string, err error) error {
	var ve *validation.Error
	if !errors.As(err, &ve) {
		return &Error{Op: op, Kind: Unknown, Err: err}
	}
	return &Error{Op: op, Kind: validationKinds[ve.Kind], Field: ve.Field, Err: err}
}
