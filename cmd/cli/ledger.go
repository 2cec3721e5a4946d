package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/adapter/http/dto"
)

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConsistency(cmd, newAPIClient(opts))
		},
	})

	return cmd
}

func checkConsistency(cmd *cobra.Command, client *apiClient) error {
	var result dto.ConsistencyResponse
	_, err := client.do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, nil, &result)

	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		if jsonErr := json.Unmarshal(apiErr.Body, &result); jsonErr != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Consistency check FAILED")
		if err := printJSON(cmd.OutOrStdout(), result.Discrepancies); err != nil {
			return err
		}
		return fmt.Errorf("ledger is inconsistent: %d wallet(s) disagree with their transactions", len(result.Discrepancies))
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
	fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", result.Status)
	return nil
}
