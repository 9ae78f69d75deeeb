package state

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("no env in context")
	}
	if env.RunID == uuid.Nil {
		t.Error("run id not assigned")
	}
	if env.Uptime() < 0 {
		t.Error("uptime went backwards")
	}
}

func TestEnvFromContext_Missing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing env")
		}
	}()
	EnvFromContext(context.Background())
}
