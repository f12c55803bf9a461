package account

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/ctxutil"
	"github.com/Spok95/school-portal/internal/identity"
	"github.com/Spok95/school-portal/internal/metrics"
	"github.com/Spok95/school-portal/internal/models"
	"github.com/Spok95/school-portal/internal/observability"
	"github.com/Spok95/school-portal/internal/store"
	"github.com/Spok95/school-portal/internal/validation"
)

// Saga step names, used in errors, logs and metrics.
const (
	StepCheckSchool    = "check_school"
	StepCreateIdentity = "create_identity"
	StepWriteUser      = "write_user"
	StepWriteSchool    = "write_school"
)

// Input is a registration form.
// ConfirmPassword is nil when the form has no confirmation field.
type Input struct {
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	ConfirmPassword *string     `json:"confirmPassword,omitempty"`
	Name            string      `json:"name"`
	SchoolName      string      `json:"schoolName"`
	Whatsapp        string      `json:"whatsapp"`
	Role            models.Role `json:"role"`

	// admin only
	Stage             string `json:"stage,omitempty"`
	PrincipalName     string `json:"principalName,omitempty"`
	PrincipalWhatsapp string `json:"principalWhatsapp,omitempty"`

	// Staff entry of the registrant. For an admin with a national id it is
	// written inside the new school record.
	JobTitle   string `json:"jobTitle,omitempty"`
	NationalID string `json:"nationalId,omitempty"`
	CodeNumber string `json:"codeNumber,omitempty"`
}

func (in Input) validate() error {
	err := validation.Required(
		validation.Field{Name: "email", Value: in.Email},
		validation.Field{Name: "password", Value: in.Password},
		validation.Field{Name: "name", Value: in.Name},
		validation.Field{Name: "schoolName", Value: in.SchoolName},
		validation.Field{Name: "whatsapp", Value: in.Whatsapp},
	)
	if err != nil {
		return fromValidation(OpRegister, err)
	}
	if !in.Role.Valid() {
		return &Error{Op: OpRegister, Kind: InvalidRole, Field: "role"}
	}
	if err := validation.Email(strings.TrimSpace(in.Email)); err != nil {
		return fromValidation(OpRegister, err)
	}
	if err := validation.Password(in.Password); err != nil {
		return fromValidation(OpRegister, err)
	}
	if in.ConfirmPassword != nil {
		if err := validation.PasswordConfirmation(in.Password, *in.ConfirmPassword); err != nil {
			return fromValidation(OpRegister, err)
		}
	}
	if err := validation.Phone(in.Whatsapp); err != nil {
		return fromValidation(OpRegister, err)
	}
	// имя школы и national id становятся ключами в хранилище
	if err := store.ValidKey(strings.TrimSpace(in.SchoolName)); err != nil {
		return &Error{Op: OpRegister, Kind: InvalidSchoolName, Field: "schoolName", Err: err}
	}
	if nid := strings.TrimSpace(in.NationalID); nid != "" {
		if err := store.ValidKey(nid); err != nil {
			return &Error{Op: OpRegister, Kind: InvalidNationalID, Field: "nationalId", Err: err}
		}
	}
	return nil
}

// Register creates the identity, the user record and, for an admin, the
// school record. It returns nil or exactly one *Error.
//
// Once identity creation starts the caller's cancellation is ignored: the
// saga runs to success or to the end of its rollback.
func (s *Service) Register(ctx context.Context, in Input) (err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = KindOf(err).String()
		}
		metrics.Registrations.WithLabelValues(outcome).Inc()
	}()

	if err := in.validate(); err != nil {
		return err
	}
	in.Email = strings.TrimSpace(in.Email)
	in.SchoolName = strings.TrimSpace(in.SchoolName)
	admin := in.Role == models.Admin

	log := s.log.With(
		zap.String("op", OpRegister),
		zap.String("school", in.SchoolName),
		zap.String("role", string(in.Role)),
	)

	if admin {
		unlock := s.locks.Lock(in.SchoolName)
		defer unlock()

		taken, err := s.repo.SchoolExists(ctx, in.SchoolName)
		if err != nil {
			log.Error("school lookup failed", zap.Error(err))
			return &Error{Op: OpRegister, Kind: Unknown, Step: StepCheckSchool, Err: err}
		}
		if taken {
			return &Error{Op: OpRegister, Kind: SchoolNameTaken, Field: "schoolName"}
		}
	}

	ctx = ctxutil.WithOp(context.WithoutCancel(ctx), OpRegister)
	now := s.now().UTC()

	var (
		id     identity.Identity
		school models.SchoolRecord
	)
	steps := []step{
		{
			name: StepCreateIdentity,
			action: func(ctx context.Context) error {
				var err error
				id, err = s.idp.CreateAccount(ctx, in.Email, in.Password)
				return err
			},
			compensate: func(ctx context.Context) error {
				return s.idp.DeleteAccount(ctx, id)
			},
		},
		{
			name: StepWriteUser,
			action: func(ctx context.Context) error {
				return s.repo.CreateUser(ctx, newUserRecord(in, id.UID, now))
			},
			compensate: func(ctx context.Context) error {
				return s.repo.DeleteUser(ctx, id.UID)
			},
		},
	}
	if admin {
		steps = append(steps, step{
			name: StepWriteSchool,
			action: func(ctx context.Context) error {
				school = newSchoolRecord(in, id.UID, now)
				return s.repo.CreateSchool(ctx, school)
			},
		})
	}

	onCompensate := func(step string, cerr error) {
		metrics.Compensations.WithLabelValues(step, compensationResult(cerr)).Inc()
		if cerr == nil {
			log.Info("compensated", zap.String("step", step), zap.String("uid", id.UID))
			return
		}
		log.Error("compensation failed", zap.String("step", step), zap.String("uid", id.UID), zap.Error(cerr))
		observability.CaptureCompensation(cerr, OpRegister, step, id.UID)
	}

	if f := runSaga(ctx, steps, onCompensate); f != nil {
		e := &Error{Op: OpRegister, Step: f.step, Compensated: f.compensated, Err: f.err}
		switch f.step {
		case StepCreateIdentity:
			e.Kind = createIdentityKind(identity.KindOf(f.err))
		case StepWriteUser:
			e.Kind = UserRecordWriteFailed
		case StepWriteSchool:
			e.Kind = SchoolRecordWriteFailed
		}
		log.Warn("registration failed", zap.String("step", f.step), zap.Bool("compensated", f.compensated), zap.Error(f.err))
		return e
	}

	log.Info("registered", zap.String("uid", id.UID))
	if admin && s.notifier != nil {
		s.notifier.SchoolRegistered(ctx, school)
	}
	return nil
}

func createIdentityKind(k identity.Kind) Kind {
	switch k {
	case identity.EmailInUse:
		return EmailInUse
	case identity.InvalidEmail:
		return InvalidEmail
	case identity.OperationNotAllowed:
		return RegistrationDisabled
	case identity.WeakPassword:
		return WeakPassword
	}
	return Unknown
}

func compensationResult(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

func newUserRecord(in Input, uid string, now time.Time) models.UserRecord {
	return models.UserRecord{
		UID:        uid,
		Name:       strings.TrimSpace(in.Name),
		Email:      in.Email,
		SchoolName: in.SchoolName,
		Role:       in.Role,
		Whatsapp:   strings.TrimSpace(in.Whatsapp),
		CreatedAt:  now,
	}
}

func newSchoolRecord(in Input, uid string, now time.Time) models.SchoolRecord {
	principal := models.Principal{
		Name:     strings.TrimSpace(in.Name),
		Whatsapp: strings.TrimSpace(in.Whatsapp),
		Email:    in.Email,
	}
	if v := strings.TrimSpace(in.PrincipalName); v != "" {
		principal.Name = v
	}
	if v := strings.TrimSpace(in.PrincipalWhatsapp); v != "" {
		principal.Whatsapp = v
	}
	stage := strings.TrimSpace(in.Stage)
	if stage == "" {
		stage = models.DefaultStage
	}
	rec := models.SchoolRecord{
		SchoolInfo: models.SchoolInfo{
			Name:      in.SchoolName,
			Stage:     stage,
			Principal: principal,
			CreatedAt: now,
			CreatedBy: uid,
		},
	}
	if nid := strings.TrimSpace(in.NationalID); nid != "" {
		created := now
		rec.Staff = map[string]models.StaffEntry{
			nid: {
				Name:       strings.TrimSpace(in.Name),
				JobTitle:   strings.TrimSpace(in.JobTitle),
				NationalID: nid,
				CodeNumber: strings.TrimSpace(in.CodeNumber),
				Whatsapp:   strings.TrimSpace(in.Whatsapp),
				Email:      in.Email,
				Role:       string(models.Admin),
				CreatedAt:  &created,
			},
		}
	}
	return rec
}
