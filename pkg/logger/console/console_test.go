package console

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(ConsoleLoggerParams{JSON: true, Output: &buf})

	l.Info("saved", "handle", "h1")
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, `"msg":"saved"`) || !strings.Contains(out, `"handle":"h1"`) {
		t.Fatalf("output = %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %s", out)
	}
}
