package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/slayergit/internal/app"
	"github.com/five82/slayergit/internal/state"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "none"
)

// errRefreshFailed makes the process exit 1 after the report was printed.
var errRefreshFailed = errors.New("one or more kinds failed to refresh")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRefreshFailed) {
			fmt.Fprintf(os.Stderr, "slayergit: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:   "slayergit",
		Short: "Terminal UI for git that keeps every view in sync",
		Long: `slayergit shows status, branches, remotes, commits, reflog, stashes and tags
of a git repository side by side and refreshes them concurrently whenever the
repository changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/slayergit/config.toml)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/slayergit/prefs.toml)")
	flags.StringVarP(&opts.RepoPath, "repo", "r", "", "repository path (default: current directory)")
	flags.DurationVar(&opts.PollInterval, "poll", 0, "also refresh everything on this interval, e.g. 30s")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newRefreshCmd(&opts), newVersionCmd())
	return root
}

func newRefreshCmd(opts *app.Options) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "refresh [kind...]",
		Short: "Run one refresh cycle and print the result",
		Long: `Run one refresh cycle without the UI. Kinds are status, local-branches,
remote-branches, commits, reflog, stashes and tags; none or "all" refreshes
everything. Exits 1 when any kind failed.`,
		ValidArgs: validKinds(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := state.ParseKindSet(args...)
			if err != nil {
				return err
			}
			report, err := app.RunRefresh(cmd.Context(), *opts, kinds)
			if err != nil {
				return err
			}
			if jsonOutput {
				err = writeJSON(cmd.OutOrStdout(), report)
			} else {
				writeText(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}
			if !report.OK() {
				return errRefreshFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report, including fetched data, as JSON")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slayergit %s (%s)\n", version, commit)
		},
	}
}

func validKinds() []string {
	names := []string{"all"}
	for _, k := range state.Kinds() {
		names = append(names, k.String())
	}
	return names
}

func writeJSON(w io.Writer, report app.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeText(w io.Writer, report app.Report) {
	fmt.Fprintf(w, "cycle %s  %s\n", report.Cycle, time.Duration(report.DurationMillis)*time.Millisecond)
	failed := make(map[string]bool, len(report.Failed))
	for _, name := range report.Failed {
		failed[name] = true
	}
	for _, name := range report.Requested {
		if failed[name] {
			fmt.Fprintf(w, "  %-16s failed: %s\n", name, report.Errors[name])
			continue
		}
		fmt.Fprintf(w, "  %-16s ok\n", name)
	}
	fmt.Fprintln(w, report.Summary)
}
