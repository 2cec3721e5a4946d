package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/handler"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/retry"
)

func walletCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	cmd.AddCommand(
		walletCreateCmd(opts),
		walletGetCmd(opts),
		walletExecuteCmd(opts, domain.DirectionCredit),
		walletExecuteCmd(opts, domain.DirectionDebit),
		walletHistoryCmd(opts),
	)

	return cmd
}

func walletCreateCmd(opts *options) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a wallet with zero balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.CreateWalletResponse
			_, err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/wallets/", nil,
				dto.CreateWalletRequest{UserID: userID}, &resp)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Owner user ID")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func walletGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWalletID(args[0])
			if err != nil {
				return err
			}

			var resp dto.WalletResponse
			if _, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, fmt.Sprintf("/api/v1/wallets/%d", id), nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func walletHistoryCmd(opts *options) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history ID",
		Short: "List a wallet's transactions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWalletID(args[0])
			if err != nil {
				return err
			}

			path := fmt.Sprintf("/api/v1/wallets/%d/transactions?limit=%d&offset=%d", id, limit, offset)

			var resp dto.ListTransactionsResponse
			if _, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, path, nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultPageSize, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")

	return cmd
}

func walletExecuteCmd(opts *options, direction domain.Direction) *cobra.Command {
	var (
		amount         string
		key            string
		retryConflicts int
	)

	verb := strings.ToLower(string(direction))

	cmd := &cobra.Command{
		Use:   verb + " ID",
		Short: fmt.Sprintf("Apply a %s to a wallet", verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWalletID(args[0])
			if err != nil {
				return err
			}

			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, amount)
			}
			if err := domain.ValidateAmount(value); err != nil {
				return err
			}

			if key == "" {
				key = ulid.Make().String()
				fmt.Fprintf(cmd.ErrOrStderr(), "idempotency key: %s\n", key)
			}

			resp, replayed, err := execute(cmd.Context(), newAPIClient(opts), id, verb, value, key, retryConflicts)
			if err != nil {
				return err
			}
			if replayed {
				fmt.Fprintln(cmd.ErrOrStderr(), "replayed from idempotency cache")
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Whole amount to apply")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key (default: a fresh ULID)")
	cmd.Flags().IntVar(&retryConflicts, "retry-conflicts", 0, "Resend with the same key this many times on a concurrent-modification conflict")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// execute posts one credit or debit. Conflicts are resent with the same key
// up to retries times, so at most one attempt is ever applied.
func execute(ctx context.Context, client *apiClient, walletID int64, verb string, amount decimal.Decimal, key string, retries int) (*dto.ExecuteResponse, bool, error) {
	retrier := retry.New(retry.Config{
		MaxAttempts: retries + 1,
		Retryable: func(err error) bool {
			return errors.Is(err, errConflict)
		},
	}, nil)

	path := fmt.Sprintf("/api/v1/wallets/%d/%s", walletID, verb)
	headers := map[string]string{handler.IdempotencyKeyHeader: key}

	var (
		resp     dto.ExecuteResponse
		replayed bool
	)
	err := retrier.Retry(ctx, func() error {
		h, err := client.do(ctx, http.MethodPost, path, headers, dto.AmountRequest{Amount: amount}, &resp)
		if err != nil {
			return err
		}
		replayed = h.Get(handler.ReplayHeader) == "true"
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return &resp, replayed, nil
}

func parseWalletID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidWalletID, raw)
	}
	return id, nil
}
