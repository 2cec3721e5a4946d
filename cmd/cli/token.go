package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/infrastructure/auth"
)

func tokenCmd() *cobra.Command {
	var (
		secret  string
		subject int64
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Bearer token utilities",
	}

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or $JWT_SECRET is required")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(subject)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	issue.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC signing secret (default $JWT_SECRET)")
	issue.Flags().Int64Var(&subject, "subject", 0, "User ID the token is issued to")
	issue.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = issue.MarkFlagRequired("subject")

	cmd.AddCommand(issue)

	return cmd
}
