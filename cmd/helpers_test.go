package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// isolate points every per-user directory at a fresh temp dir and returns
// the sqlite path commands should use
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SUDO_USER", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local/share"))
	return filepath.Join(home, "guest.db")
}

// resetFlags restores every flag in the command tree to its default so
// runs do not leak into each other
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI against the sqlite database at db
func run(t *testing.T, db string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	appConfig = nil

	full := append([]string{"--backend", "sqlite", "--storage", db}, args...)
	rootCmd.SetArgs(full)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRun fails the test when the command errors
func mustRun(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, errOut, err := run(t, db, args...)
	if err != nil {
		t.Fatalf("%v failed: %v\nstderr: %s", args, err, errOut)
	}
	return out
}
