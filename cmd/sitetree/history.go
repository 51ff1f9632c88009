package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitetree/internal/config"
	"github.com/nao1215/sitetree/internal/database"
	"github.com/nao1215/sitetree/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [base-url]",
		Short: "List archived crawls",
		Long: `List crawls saved with --save (or with dbDir set in the configuration file).

Without an argument every archived crawl is listed, newest first. With a base
URL only the crawls of that site are listed.

Examples:
  # List all crawls
  sitetree history

  # List the crawls of one site
  sitetree history http://localhost:8080

  # List the sites that have been crawled
  sitetree history --sites

  # Print an archived tree
  sitetree history show 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(),
		"Directory of the crawl archive")
	cmd.Flags().BoolP("sites", "s", false,
		"List crawled sites instead of crawls")

	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

// newHistoryShowCmd creates the "history show" subcommand.
func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived crawl",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}

	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Output format: text, markdown or json")

	return cmd
}

// openArchive opens the crawl archive named by the --db-dir flag.
func openArchive(cmd *cobra.Command) (*database.CrawlDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// runHistoryCmd lists archived crawls or crawled sites.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	sites, err := cmd.Flags().GetBool("sites")
	if err != nil {
		return err
	}

	db, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	if sites {
		list, err := db.ListSites(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sites: %w", err)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No crawled sites.")
			return nil
		}
		for _, site := range list {
			fmt.Fprintln(out, site)
		}
		return nil
	}

	var baseURL string
	if len(args) == 1 {
		baseURL = args[0]
	}

	records, err := db.ListCrawls(cmd.Context(), baseURL)
	if err != nil {
		return fmt.Errorf("failed to list crawls: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No archived crawls.")
		return nil
	}

	fmt.Fprintf(out, "  %-6s  %-20s  %-9s  %-5s  %s\n", "ID", "Started", "Resources", "Depth", "Base URL")
	for _, r := range records {
		fmt.Fprintf(out, "  %-6d  %-20s  %-9d  %-5d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.ResourceCount,
			r.Depth,
			r.BaseURL,
		)
	}

	return nil
}

// runHistoryShowCmd prints one archived crawl in the requested format.
func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid crawl id %q: %w", args[0], err)
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	writer, err := report.NewWriter(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	db, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	tree, err := db.GetCrawl(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load crawl %d: %w", id, err)
	}

	if _, err := writer.Write(tree); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
