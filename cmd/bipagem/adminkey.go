package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/auth"
)

var adminKeyCmd = &cobra.Command{
	Use:   "admin-key",
	Short: "Generate an admin key for BIPAGEM_ADMIN_KEY",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		displayKey, _, err := auth.GenerateAdminKey()
		if err != nil {
			return fmt.Errorf("generate admin key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), displayKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminKeyCmd)
}
