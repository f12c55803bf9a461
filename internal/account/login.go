package account

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/validation"
)

// Login checks the form locally and signs in.
func (s *Service) Login(ctx context.Context, email, password string) (identity.Identity, error) {
	email = strings.TrimSpace(email)
	err := validation.Required(
		validation.Field{Name: "email", Value: email},
		validation.Field{Name: "password", Value: password},
	)
	if err == nil {
		err = validation.Email(email)
	}
	if err == nil {
		err = validation.Password(password)
	}
	if err != nil {
		return identity.Identity{}, fromValidation(OpLogin, err)
	}

	id, err := s.idp.SignIn(ctx, email, password)
	if err != nil {
		k := signInKind(identity.KindOf(err))
		if k == Unknown {
			s.log.Error("sign-in failed", zap.Error(err))
		}
		return identity.Identity{}, &Error{Op: OpLogin, Kind: k, Err: err}
	}
	s.log.Info("signed in", zap.String("uid", id.UID))
	return id, nil
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.idp.SignOut(ctx); err != nil {
		return &Error{Op: OpLogout, Kind: Unknown, Err: err}
	}
	return nil
}

func signInKind(k identity.Kind) Kind {
	switch k {
	case identity.UserNotFound, identity.WrongPassword:
		return InvalidCredentials
	case identity.InvalidEmail:
		return InvalidEmail
	case identity.UserDisabled:
		return AccountDisabled
	case identity.TooManyRequests:
		return TooManyAttempts
	}
	return Unknown
}
