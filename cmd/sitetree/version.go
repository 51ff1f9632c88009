package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitetree/internal/config"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildVersion identifies the running sitetree binary.
type buildVersion struct {
	Version string
	Commit  string
	Date    string
}

// readBuildVersion merges the ldflags values with the module build info.
// Values set via ldflags win; anything still missing becomes "(devel)" for
// the version and "unknown" for commit and date.
func readBuildVersion() buildVersion {
	bv := buildVersion{Version: version, Commit: commit, Date: date}

	if info, ok := debug.ReadBuildInfo(); ok {
		if bv.Version == "" {
			bv.Version = info.Main.Version
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if bv.Commit == "" {
					bv.Commit = shortRevision(setting.Value)
				}
			case "vcs.time":
				if bv.Date == "" {
					bv.Date = setting.Value
				}
			}
		}
	}

	if bv.Version == "" {
		bv.Version = "(devel)"
	}
	if bv.Commit == "" {
		bv.Commit = "unknown"
	}
	if bv.Date == "" {
		bv.Date = "unknown"
	}
	return bv
}

// shortRevision abbreviates a VCS revision to seven characters.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// UserAgent is the User-Agent header this build sends.
func (bv buildVersion) UserAgent() string {
	return config.UserAgentFor(bv.Version)
}

// getVersion returns the version string of this build.
func getVersion() string {
	return readBuildVersion().Version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash and build date of sitetree, and the
User-Agent header it sends while crawling.`,
		Args: cobra.NoArgs,
		RunE: runVersionCmd,
	}

	cmd.Flags().Bool("short", false, "Print only the version")

	return cmd
}

// runVersionCmd executes the version command.
func runVersionCmd(cmd *cobra.Command, _ []string) error {
	short, err := cmd.Flags().GetBool("short")
	if err != nil {
		return err
	}

	bv := readBuildVersion()
	out := cmd.OutOrStdout()

	if short {
		fmt.Fprintln(out, bv.Version)
		return nil
	}

	fmt.Fprintf(out, "sitetree version %s\n", bv.Version)
	fmt.Fprintf(out, "  commit:     %s\n", bv.Commit)
	fmt.Fprintf(out, "  built:      %s\n", bv.Date)
	fmt.Fprintf(out, "  user-agent: %s\n", bv.UserAgent())
	return nil
}
