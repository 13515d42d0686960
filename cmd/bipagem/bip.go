package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bipFlags struct {
	clientConfig
}

var bipCmd = &cobra.Command{
	Use:   "bip <code>",
	Short: "Submit a scanned code",
	Long:  `Resolve a shipment label or SKU and record the scan.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runBip,
}

func init() {
	rootCmd.AddCommand(bipCmd)

	addClientFlags(bipCmd, &bipFlags.clientConfig)
}

func runBip(cmd *cobra.Command, args []string) error {
	c, err := bipFlags.newClient()
	if err != nil {
		return err
	}

	data, err := c.Bip(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !data.Found {
		fmt.Fprintf(out, "Not found: %s\n", data.Barcode)
		return nil
	}
	fmt.Fprintf(out, "Code:      %s\n", data.Barcode)
	fmt.Fprintf(out, "Platform:  %s\n", data.Platform)
	fmt.Fprintf(out, "Product:   %s\n", data.ProductName)
	fmt.Fprintf(out, "SKU:       %s\n", data.SKU)
	fmt.Fprintf(out, "Price:     %s\n", data.Price)
	if data.OrderID != "" {
		fmt.Fprintf(out, "Order:     %s\n", data.OrderID)
	}
	if data.BuyerName != "" {
		fmt.Fprintf(out, "Buyer:     %s\n", data.BuyerName)
	}
	return nil
}
