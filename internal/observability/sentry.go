package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CaptureCompensation reports a failed rollback step. These errors are never
// returned to the caller, so Sentry is the only place they surface.
func CaptureCompensation(err error, op, step, uid string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", op)
		scope.SetTag("compensation_step", step)
		if uid != "" {
			scope.SetUser(sentry.User{ID: uid})
		}
		scope.SetLevel(sentry.LevelWarning)
		sentry.CaptureException(err)
	})
}
