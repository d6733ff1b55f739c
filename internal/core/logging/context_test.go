package logging

import (
	"context"
	"testing"
)

func TestWithPushID(t *testing.T) {
	ctx := context.Background()
	pushID := "push-123"

	ctx = WithPushID(ctx, pushID)
	got := GetPushID(ctx)

	if got != pushID {
		t.Errorf("GetPushID() = %q, want %q", got, pushID)
	}
}

func TestWithRundownID(t *testing.T) {
	ctx := context.Background()
	rundownID := "rundown-456"

	ctx = WithRundownID(ctx, rundownID)
	got := GetRundownID(ctx)

	if got != rundownID {
		t.Errorf("GetRundownID() = %q, want %q", got, rundownID)
	}
}

func TestGetIDs_NotPresent(t *testing.T) {
	ctx := context.Background()

	if got := GetPushID(ctx); got != "" {
		t.Errorf("GetPushID() = %q, want empty string", got)
	}

	if got := GetRundownID(ctx); got != "" {
		t.Errorf("GetRundownID() = %q, want empty string", got)
	}
}
