package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "linkseal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	keys := &keyFlags{}
	cmd := &cobra.Command{
		Use:   "linkseal",
		Short: "Sign and verify tamper-evident URLs",
		Long: `linkseal issues signed URLs that carry their own expiry, client address and
HTTP method constraints, and checks URLs presented back against the same secrets.

Secrets and the hash algorithm come from --secret/--hash or, when the flags are
omitted, from LINKSEAL_SECRETS and LINKSEAL_HASH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringArrayVar(&keys.secrets, "secret", nil, "Signing secret; repeat to accept older secrets (the first one signs)")
	cmd.PersistentFlags().StringVar(&keys.hash, "hash", "", "Digest algorithm (md5, sha256, hmac-sha256, ...)")
	cmd.AddCommand(
		newSignCmd(keys),
		newVerifyCmd(keys),
		newKeygenCmd(),
		newRunCmd(),
	)
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run individual Go binaries directly",
	}
	cmd.AddCommand(
		newServiceRunner("server", "./cmd/server"),
		newServiceRunner("worker", "./cmd/worker"),
	)
	return cmd
}

func newServiceRunner(name, path string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("go run %s", path),
		RunE: func(cmd *cobra.Command, args []string) error {
			goArgs := append([]string{"run", path}, args...)
			return runCommand(cmd.Context(), "go", goArgs...)
		},
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	execCmd := exec.CommandContext(ctx, name, args...)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin
	return execCmd.Run()
}
