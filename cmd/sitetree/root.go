package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitetree/internal/config"
	"github.com/nao1215/sitetree/internal/crawler"
	"github.com/nao1215/sitetree/internal/database"
	"github.com/nao1215/sitetree/internal/log"
	"github.com/nao1215/sitetree/internal/model"
	"github.com/nao1215/sitetree/internal/report"
	"github.com/nao1215/sitetree/internal/transport"
)

// rootUsage is the complete help text of the root command.
const rootUsage = "Usage: sitetree [--url <URL>]\n" +
	"\t--url\tURL to be scanned (optional)\n"

// NewRootCmd creates the root command for sitetree.
// Running it without a subcommand crawls the site and prints the tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitetree",
		Short: "Print the link tree of a website",
		Long: `sitetree crawls a website starting at /index.html and prints every resource
reachable through a, link, script and img elements on the same host as an
indented tree.`,
		Args:          cobra.NoArgs,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.Flags().StringP("url", "u", config.DefaultBaseURL,
		"URL to be scanned (optional)")
	cmd.Flags().StringP("config", "c", "",
		"Path to configuration file (default: ./.sitetree, XDG config dir, ~/.sitetree)")
	cmd.Flags().StringP("format", "f", config.DefaultFormat,
		"Output format: text, markdown or json")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request (0 disables it)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address in host:port format")
	cmd.Flags().Bool("save", false,
		"Save the crawl to the archive (see 'sitetree history')")
	cmd.Flags().StringP("output", "o", "",
		"Also write the report to this file (.md, .json or text by extension)")
	cmd.Flags().Bool("log-json", false,
		"Write diagnostics on stderr as JSON lines")

	// The root help is the two-line usage; subcommands keep cobra's help.
	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		if c != c.Root() {
			defaultHelp(c, args)
			return
		}
		fmt.Fprint(c.OutOrStdout(), rootUsage)
	})

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRootCmd crawls the configured site and writes the tree to stdout.
func runRootCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)

	// Ctrl-C stops the crawl; the partial tree is still printed.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig merges defaults, the configuration file and the flags that
// were set explicitly, in that order of increasing precedence.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.UserAgent = readBuildVersion().UserAgent()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	path, err := config.FindConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		cf, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cf.Apply(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		if cfg.BaseURL, err = flags.GetString("url"); err != nil {
			return nil, err
		}
		// A blank --url means "no URL given".
		if strings.TrimSpace(cfg.BaseURL) == "" {
			cfg.BaseURL = config.DefaultBaseURL
		}
	}
	if flags.Changed("format") {
		if cfg.Format, err = flags.GetString("format"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("save") {
		if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("log-json") {
		if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger that masks credentials.
func setupLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}

// runCrawl performs one crawl with cfg and writes the result to stdout.
// Status messages go to stderr so that stdout only carries the tree.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	writer, err := report.NewWriter(cfg.Format, stdout)
	if err != nil {
		return err
	}

	client, err := transport.NewClient(cfg.ProxyAddress, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	if client.UsesProxy() {
		if err := client.CheckConnection(ctx).Error(); err != nil {
			return fmt.Errorf("proxy %s: %w", client.ProxyAddress(), err)
		}
	}

	fetcher := crawler.NewHTTPFetcher(client.NewHTTPClient(),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithHeaders(cfg.Headers),
		crawler.WithCookie(cfg.Cookie),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithPruneHTTPErrors(cfg.PruneHTTPErrors),
	)
	spider := crawler.NewSpider(fetcher,
		crawler.WithLogger(logger),
		crawler.WithMaxDepth(cfg.MaxDepth),
	)

	logger.Info("starting crawl",
		"url", cfg.BaseURL,
		"proxy", cfg.ProxyAddress,
		"maxDepth", cfg.MaxDepth,
	)

	started := time.Now()
	root, crawlErr := spider.Crawl(ctx, cfg.BaseURL)
	finished := time.Now()

	if errors.Is(crawlErr, crawler.ErrInvalidBaseURL) || errors.Is(crawlErr, crawler.ErrRootNotFetched) {
		return crawlErr
	}

	tree := model.NewSiteTree(cfg.BaseURL, root, started, finished)
	if err := writeReport(tree, writer, cfg.ReportFile); err != nil {
		return err
	}

	if crawlErr != nil {
		return fmt.Errorf("crawl interrupted: %w", crawlErr)
	}

	if cfg.SaveToDB {
		return saveCrawl(ctx, cfg.DBDir, tree, stderr)
	}
	return nil
}

// writeReport writes tree to stdout and, when reportFile is set, to that
// file in the format its extension names.
func writeReport(tree *model.SiteTree, stdout report.Writer, reportFile string) error {
	if reportFile == "" {
		if _, err := stdout.Write(tree); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	dir := filepath.Dir(reportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(reportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	fileWriter, err := report.NewWriter(report.FormatForPath(reportFile), f)
	if err != nil {
		return err
	}

	if _, err := report.NewMultiWriter(stdout, fileWriter).Write(tree); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// saveCrawl stores tree in the archive under dbDir.
func saveCrawl(ctx context.Context, dbDir string, tree *model.SiteTree, stderr io.Writer) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveCrawl(ctx, tree)
	if err != nil {
		return fmt.Errorf("failed to save crawl: %w", err)
	}

	fmt.Fprintf(stderr, "Saved crawl #%d to %s\n", id, db.Path())
	return nil
}
