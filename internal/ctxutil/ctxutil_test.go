package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestValues(t *testing.T) {
	ctx := WithOp(WithUID(context.Background(), "u1"), "register")
	if uid, ok := UID(ctx); !ok || uid != "u1" {
		t.Fatalf("uid: %q %v", uid, ok)
	}
	if op, ok := Op(ctx); !ok || op != "register" {
		t.Fatalf("op: %q %v", op, ok)
	}
	if _, ok := UID(context.Background()); ok {
		t.Fatal("empty context must not carry uid")
	}
}

func TestWithStoreTimeout_KeepsShorterParentDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, cancel2 := WithStoreTimeout(parent)
	defer cancel2()

	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected deadline")
	}
	if time.Until(dl) > 50*time.Millisecond {
		t.Fatalf("deadline must not exceed parent's: %v", time.Until(dl))
	}
}

func TestWithTimeout_NonPositive(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("d<=0 must not set a deadline")
	}
}
