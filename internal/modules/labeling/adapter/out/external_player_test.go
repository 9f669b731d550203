package out_test

import (
	"context"
	"testing"

	labelingout "carepanion/internal/modules/labeling/adapter/out"
)

func TestExternalPlayerStartsCommand(t *testing.T) {
	t.Parallel()
	if err := labelingout.NewExternalPlayer("true").Play(context.Background(), "https://example.com/a.mp3"); err != nil {
		t.Fatalf("play: %v", err)
	}
}

func TestExternalPlayerMissingCommand(t *testing.T) {
	t.Parallel()
	if err := labelingout.NewExternalPlayer("carepanion-no-such-player").Play(context.Background(), "x"); err == nil {
		t.Fatalf("expected start error")
	}
}
