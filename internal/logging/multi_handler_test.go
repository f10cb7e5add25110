package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiHandlerRespectsPerTargetLevels(t *testing.T) {
	var infoBuf, errBuf bytes.Buffer
	handler := NewMultiHandler(
		slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(handler)

	logger.Info("routine event")
	logger.Error("something broke")

	if got := strings.Count(infoBuf.String(), "\n"); got != 2 {
		t.Fatalf("info target should see both records, got %d", got)
	}
	if got := strings.Count(errBuf.String(), "\n"); got != 1 {
		t.Fatalf("error target should see only the error, got %d", got)
	}
	if strings.Contains(errBuf.String(), "routine event") {
		t.Fatal("info record leaked past the error target's level")
	}
}
