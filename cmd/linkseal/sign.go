package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/LinkSeal/internal/config"
	"github.com/dharsanguruparan/LinkSeal/internal/signing"
)

// errNotValid makes verify exit non-zero for expired and blackholed links.
var errNotValid = errors.New("url did not verify")

type keyFlags struct {
	secrets []string
	hash    string
}

// signature builds a Signature from the flags, falling back to the
// environment. A generated secret is refused: it could never verify again.
func (k *keyFlags) signature() (*signing.Signature, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	secrets := k.secrets
	if len(secrets) == 0 {
		if cfg.GeneratedSecret {
			return nil, errors.New("no secret: pass --secret or set LINKSEAL_SECRETS")
		}
		secrets = cfg.SigningSecrets
	}
	hash := k.hash
	if hash == "" {
		hash = cfg.SigningHash
	}
	return signing.New(signing.Config{Secrets: secrets, Hash: hash})
}

func newSignCmd(keys *keyFlags) *cobra.Command {
	var (
		ttl     time.Duration
		exp     int64
		addr    string
		methods []string
	)
	cmd := &cobra.Command{
		Use:   "sign <url>",
		Short: "Print a signed version of url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl < 0 || exp < 0 {
				return errors.New("--ttl and --exp must not be negative")
			}
			sig, err := keys.signature()
			if err != nil {
				return err
			}
			opts := signing.SignOptions{TTL: ttl, Addr: addr, Methods: methods}
			if exp > 0 {
				opts.Exp = time.Unix(exp, 0)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig.Sign(args[0], opts))
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Lifetime of the link, e.g. 5m (wins over --exp)")
	cmd.Flags().Int64Var(&exp, "exp", 0, "Absolute expiry as unix seconds")
	cmd.Flags().StringVar(&addr, "addr", "", "Client address the link is bound to")
	cmd.Flags().StringSliceVar(&methods, "method", nil, "HTTP methods the link is valid for (comma separated or repeated)")
	return cmd
}

func newVerifyCmd(keys *keyFlags) *cobra.Command {
	var (
		method string
		addr   string
	)
	cmd := &cobra.Command{
		Use:   "verify <url>",
		Short: "Check a signed url; exits non-zero unless it is valid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := keys.signature()
			if err != nil {
				return err
			}
			res := sig.Verify(args[0], signing.Request{Method: method, Address: addr})
			out := cmd.OutOrStdout()
			if res.Outcome != signing.Valid {
				fmt.Fprintln(out, res.Outcome)
				return errNotValid
			}
			fmt.Fprintln(out, res.Outcome, res.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method of the request being checked")
	cmd.Flags().StringVar(&addr, "addr", "", "Client address of the request being checked")
	return cmd
}

func newKeygenCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a random hex secret suitable for LINKSEAL_SECRETS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 16 {
				return fmt.Errorf("--bytes must be at least 16, got %d", n)
			}
			secret, err := config.RandomSecret(n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "bytes", 32, "Number of random bytes")
	return cmd
}
