package account

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestRunSaga(t *testing.T) {
	var log []string
	mk := func(name string, fail, undoFail bool) step {
		st := step{
			name: name,
			action: func(context.Context) error {
				log = append(log, "do "+name)
				if fail {
					return errors.New(name + " failed")
				}
				return nil
			},
		}
		if name != "b" {
			st.compensate = func(context.Context) error {
				log = append(log, "undo "+name)
				if undoFail {
					return errors.New("undo " + name + " failed")
				}
				return nil
			}
		}
		return st
	}

	t.Run("all succeed", func(t *testing.T) {
		log = nil
		if f := runSaga(context.Background(), []step{mk("a", false, false), mk("b", false, false)}, nil); f != nil {
			t.Fatalf("unexpected failure %+v", f)
		}
		if !reflect.DeepEqual(log, []string{"do a", "do b"}) {
			t.Fatalf("got %v", log)
		}
	})

	t.Run("reverse compensation", func(t *testing.T) {
		log = nil
		var reported []string
		steps := []step{mk("a", false, false), mk("b", false, false), mk("c", false, true), mk("d", true, false), mk("e", false, false)}
		f := runSaga(context.Background(), steps, func(step string, err error) {
			reported = append(reported, step)
		})
		if f == nil || f.step != "d" || f.compensated {
			t.Fatalf("unexpected failure %+v", f)
		}
		want := []string{"do a", "do b", "do c", "do d", "undo c", "undo a"}
		if !reflect.DeepEqual(log, want) {
			t.Fatalf("got %v want %v", log, want)
		}
		if !reflect.DeepEqual(reported, []string{"c", "a"}) {
			t.Fatalf("reported %v", reported)
		}
		if f.err.Error() != "d failed" {
			t.Fatalf("original error replaced: %v", f.err)
		}
	})

	t.Run("first step fails", func(t *testing.T) {
		log = nil
		f := runSaga(context.Background(), []step{mk("a", true, false)}, nil)
		if f == nil || !f.compensated || !reflect.DeepEqual(log, []string{"do a"}) {
			t.Fatalf("unexpected %+v %v", f, log)
		}
	})
}
