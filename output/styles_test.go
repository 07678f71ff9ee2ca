package output

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestStylesDegradeOnPlainWriter(t *testing.T) {
	var buf strings.Builder
	styles := NewStyles(&buf)

	// No escape sequences when the writer is not a terminal.
	assert.Equal(t, "ok", styles.Success("ok"))
	assert.Equal(t, "fail", styles.Error("fail"))
	assert.Equal(t, "dim", styles.Dim("dim"))
}

func TestTerminalWidthFallback(t *testing.T) {
	var buf strings.Builder
	assert.Equal(t, 80, TerminalWidth(&buf, 80))
}
