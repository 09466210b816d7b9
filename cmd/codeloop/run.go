package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/martinemde/codeloop/codeact"
	"github.com/martinemde/codeloop/modelcall"
	"github.com/martinemde/codeloop/starlarkbox"
	"github.com/martinemde/codeloop/taskfile"
)

var rootCmd = &cobra.Command{
	Use:          "codeloop",
	Short:        "Run code-acting agent tasks in a restricted Starlark sandbox",
	SilenceUsage: true,
}

var (
	flagProvider string
	flagModel    string
	flagTimeout  time.Duration
	flagVerbose  bool
)

var runCmd = &cobra.Command{
	Use:   "run <task.yaml>",
	Short: "Run a task file and print the structured result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := taskfile.Load(args[0])
		if err != nil {
			return err
		}
		spec, err := task.Spec()
		if err != nil {
			return err
		}

		config := task.RunConfig()
		if flagTimeout > 0 {
			config.Timeout = flagTimeout
		}
		if flagVerbose {
			config.Verbose = true
		}

		client, err := modelcall.New(flagProvider, modelcall.WithModel(flagModel))
		if err != nil {
			return err
		}

		session := starlarkbox.NewSession()
		opts := []codeact.RunnerOption{
			codeact.WithConfig(config),
			codeact.WithAsk(client.Ask),
		}
		if config.Verbose {
			opts = append(opts, codeact.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
		}
		runner := codeact.NewRunner(session, client.Generator(spec, nil), client.Extractor(spec), opts...)
		defer runner.Close()

		result, err := runner.Run(cmd.Context(), spec, task.Values)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&flagProvider, "provider", "openai", "LLM provider (openai, anthropic, ...)")
	runCmd.Flags().StringVar(&flagModel, "model", "", "model identifier (provider default when empty)")
	runCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "overall run time ceiling (0 = unbounded)")
	runCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log run milestones to stderr")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
