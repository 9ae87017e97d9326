package system

import (
	"context"
	"os"
	"os/exec"
)

type osExecutor struct{}

// Execute runs name with a C locale so error text from the zfs userland is
// stable enough to classify.
func (osExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	return cmd.CombinedOutput()
}
