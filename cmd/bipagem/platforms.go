package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var platformsFlags struct {
	clientConfig
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List marketplaces and their connection state",
	RunE:  runPlatforms,
}

var sourcesFlags struct {
	clientConfig
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the lookup sources in the order they are tried",
	RunE:  runSources,
}

var setupFlags struct {
	clientConfig
	clientID     string
	clientSecret string
}

var setupCmd = &cobra.Command{
	Use:   "setup <platform>",
	Short: "Store a marketplace client registration",
	Long: `Store the OAuth client id and secret of a marketplace. Open the printed
authorization URL in a browser to connect the account.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(platformsCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(setupCmd)

	addClientFlags(platformsCmd, &platformsFlags.clientConfig)
	addClientFlags(sourcesCmd, &sourcesFlags.clientConfig)
	addClientFlags(setupCmd, &setupFlags.clientConfig)
	setupCmd.Flags().StringVar(&setupFlags.clientID, "client-id", "", "OAuth client id")
	setupCmd.Flags().StringVar(&setupFlags.clientSecret, "client-secret", "", "OAuth client secret")
	_ = setupCmd.MarkFlagRequired("client-id")
	_ = setupCmd.MarkFlagRequired("client-secret")
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	c, err := platformsFlags.newClient()
	if err != nil {
		return err
	}
	platforms, err := c.Platforms(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-16s  %-16s  %-10s  %s\n", "ID", "NAME", "CONFIGURED", "CONNECTED")
	for _, p := range platforms {
		fmt.Fprintf(out, "%-16s  %-16s  %-10t  %t\n", p.ID, p.Name, p.Configured, p.Connected)
	}
	return nil
}

func runSources(cmd *cobra.Command, args []string) error {
	c, err := sourcesFlags.newClient()
	if err != nil {
		return err
	}
	resp, err := c.Sources(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-16s  %-16s  %-16s  %s\n", "ID", "PLATFORM", "CAPABILITIES", "FALLBACK")
	for _, src := range resp.Sources {
		fmt.Fprintf(out, "%-16s  %-16s  %-16s  %t\n", src.ID, src.Platform, strings.Join(src.Capabilities, ","), src.Fallback)
	}
	return nil
}

func runSetup(cmd *cobra.Command, args []string) error {
	c, err := setupFlags.newClient()
	if err != nil {
		return err
	}
	resp, err := c.Setup(cmd.Context(), args[0], setupFlags.clientID, setupFlags.clientSecret)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved. Authorize at %s%s\n", c.BaseURL, resp.AuthURL)
	return nil
}
