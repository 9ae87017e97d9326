package cmd

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/firefly-engineering/beadm/internal/app"
	"github.com/firefly-engineering/beadm/internal/errors"
)

// withApp builds the App, runs fn against it and releases the client.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// isInteractive reports whether stdin and stdout are both terminals.
// Tests replace it.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// clientRoot returns the boot environment root name of the running client,
// for validation of names entered interactively.
func clientRoot(a *app.App) string {
	if r, ok := a.Client.(interface{ Root() string }); ok {
		return r.Root()
	}
	return a.Config.Root
}

// formatSize renders bytes the way zfs list does, e.g. "906M".
func formatSize(n uint64) string {
	return units.CustomSize("%.4g%s", float64(n), 1024.0, []string{"B", "K", "M", "G", "T", "P", "E", "Z", "Y"})
}

// formatCreated renders a creation time in local time.
func formatCreated(sec int64) string {
	return time.Unix(sec, 0).Local().Format("2006-01-02 15:04")
}

// orDash substitutes "-" for an empty table cell.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// readPrettyName reads PRETTY_NAME from an os-release file.
func readPrettyName(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.IO(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || key != "PRETTY_NAME" {
			continue
		}
		return strings.Trim(value, `"'`), nil
	}
	if err := scanner.Err(); err != nil {
		return "", errors.IO(err)
	}
	return "", errors.ValidationError("no PRETTY_NAME in " + path)
}
