package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/types"
)

var recentFlags struct {
	clientConfig
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show scan totals and the latest scans",
	RunE:  runRecent,
}

var reportFlags struct {
	clientConfig
	date     string
	start    string
	end      string
	platform string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the daily report, or a period report with --start and --end",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(reportCmd)

	addClientFlags(recentCmd, &recentFlags.clientConfig)
	addClientFlags(reportCmd, &reportFlags.clientConfig)
	reportCmd.Flags().StringVar(&reportFlags.date, "date", "", "day to report (YYYY-MM-DD, default today)")
	reportCmd.Flags().StringVar(&reportFlags.start, "start", "", "first day of a period report (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportFlags.end, "end", "", "last day of a period report (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportFlags.platform, "platform", "", "restrict a period report to one platform")
}

func runRecent(cmd *cobra.Command, args []string) error {
	c, err := recentFlags.newClient()
	if err != nil {
		return err
	}
	resp, err := c.Reports(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "By platform:")
	for _, p := range resp.ByPlatform {
		fmt.Fprintf(out, "  %-20s  %d\n", p.Platform, p.Count)
	}
	fmt.Fprintln(out)
	printScans(out, resp.Recent)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	c, err := reportFlags.newClient()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if reportFlags.start != "" || reportFlags.end != "" {
		if reportFlags.start == "" || reportFlags.end == "" {
			return fmt.Errorf("--start and --end must be used together")
		}
		resp, err := c.Period(cmd.Context(), reportFlags.start, reportFlags.end, reportFlags.platform)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Period %s to %s\n", resp.StartDate, resp.EndDate)
		fmt.Fprintf(out, "Total: %d  Average/day: %d\n", resp.Summary.Total, resp.Summary.Average)
		if resp.Summary.BestDay.Date != "" {
			fmt.Fprintf(out, "Best day: %s (%d)\n", resp.Summary.BestDay.Date, resp.Summary.BestDay.Count)
		}
		if resp.Summary.TopPlatform.Name != "" {
			fmt.Fprintf(out, "Top platform: %s (%d%%)\n", resp.Summary.TopPlatform.Name, resp.Summary.TopPlatform.Percentage)
		}
		fmt.Fprintln(out)
		for _, d := range resp.Daily {
			fmt.Fprintf(out, "  %s  %d\n", d.Date, d.Total)
		}
		return nil
	}

	resp, err := c.Daily(cmd.Context(), reportFlags.date)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d scans\n", resp.Date, resp.Total)
	names := make([]string, 0, len(resp.ByPlatform))
	for name := range resp.ByPlatform {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-20s  %d\n", name, resp.ByPlatform[name])
	}
	fmt.Fprintln(out)
	printScans(out, resp.Scans)
	return nil
}

func printScans(out io.Writer, scans []types.ScanRecord) {
	if len(scans) == 0 {
		fmt.Fprintln(out, "No scans found.")
		return
	}
	fmt.Fprintf(out, "%-19s  %-18s  %-16s  %8s  %s\n", "TIME", "CODE", "PLATFORM", "PRICE", "PRODUCT")
	for _, s := range scans {
		at, _ := time.Parse(time.RFC3339, s.CapturedAt)
		name := "-"
		if s.ProductName != nil {
			name = *s.ProductName
		}
		fmt.Fprintf(out, "%-19s  %-18s  %-16s  %8s  %s\n", at.Local().Format("2006-01-02 15:04:05"), s.Barcode, s.Platform, s.Price, name)
	}
}
