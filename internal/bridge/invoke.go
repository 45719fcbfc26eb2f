package bridge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// stderrTailLimit caps how much captured stderr is folded into an
// error message. The external package prints full tracebacks; the last
// lines carry the actual exception.
const stderrTailLimit = 2048

// run spawns the pinned interpreter with the built call, blocking
// until it exits. On failure the external process's stderr is surfaced
// verbatim in the returned error. There is no retry and no timeout
// beyond what ctx carries.
func (r *Runner) run(ctx context.Context, call Call) (string, error) {
	cmd := exec.CommandContext(ctx, r.environment.Interpreter(), call.Args...)
	cmd.Dir = call.Workdir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("external call failed: %w: %s", err, stderrTail(stderr.String()))
	}
	return stdout.String(), nil
}

// stderrTail trims captured stderr to its last stderrTailLimit bytes.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return s
}
