package account

import "context"

// step is one forward action of a saga and the action that undoes it.
// compensate is nil when there is nothing to undo.
type step struct {
	name       string
	action     func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

type sagaFailure struct {
	step        string
	err         error
	compensated bool
}

// runSaga executes steps in order and stops at the first error. When step i
// fails, the compensations of steps i-1..0 run in reverse order. Every
// compensation result is reported through onCompensate; compensation errors
// never replace the original failure.
func runSaga(ctx context.Context, steps []step, onCompensate func(step string, err error)) *sagaFailure {
	for i, st := range steps {
		err := st.action(ctx)
		if err == nil {
			continue
		}
		f := &sagaFailure{step: st.name, err: err, compensated: true}
		for j := i - 1; j >= 0; j-- {
			undo := steps[j]
			if undo.compensate == nil {
				continue
			}
			cerr := undo.compensate(ctx)
			if cerr != nil {
				f.compensated = false
			}
			if onCompensate != nil {
				onCompensate(undo.name, cerr)
			}
		}
		return f
	}
	return nil
}
