package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sovagpt/nhl/internal/app"
	"github.com/sovagpt/nhl/internal/config"
)

var version = "dev"

var (
	flagConfig  string
	flagGoalies bool
	flagOut     string
)

var rootCmd = &cobra.Command{
	Use:           "edgectl",
	Short:         "One-shot goalie edge builds",
	Long:          "edgectl runs the games pipeline once, printing the result or saving it as a snapshot.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if flagConfig != "" {
			return os.Setenv(config.EnvFile, flagConfig)
		}
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Build today's games and print them as JSON",
	RunE:  runFetch,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Build today's games and save the snapshot",
	Long:  "snapshot writes the build to --out and, when Redis is configured, to the snapshot store and alert stream.",
	RunE:  runSnapshot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "edgectl %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	fetchCmd.Flags().BoolVar(&flagGoalies, "goalies", false, "print the merged goalie list instead of games")
	snapshotCmd.Flags().StringVar(&flagOut, "out", "data.json", "file to write the snapshot to")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "edgectl:", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	app.ConfigureMetrics(cfg)
	// logs go to stderr so stdout stays valid JSON
	return app.New(cfg, app.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel))
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if flagGoalies {
		return printJSON(cmd.OutOrStdout(), a.Pipeline().Goalies(ctx))
	}
	resp, err := a.Pipeline().Build(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Ping(ctx); err != nil {
		return err
	}

	resp, err := a.SnapshotJob(flagOut).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %d games to %s\n", len(resp.Games), flagOut)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
