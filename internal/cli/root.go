// Package cli wires configuration, the database connection, the execution
// engine and the shell into the agerepl command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agequery/agerepl/internal/config"
	"github.com/agequery/agerepl/internal/llm"
	"github.com/agequery/agerepl/internal/postgres"
	"github.com/agequery/agerepl/internal/query"
	"github.com/agequery/agerepl/internal/repl"
	"github.com/agequery/agerepl/internal/tui"
)

// RootOptions holds the flags of the root command.
type RootOptions struct {
	Execute      bool
	SystemPrompt string
	Verbose      bool
	ConfigFile   string
}

// NewRootCommand creates the agerepl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "agerepl [files...]",
		Short: "Cypher REPL for AGE/PostgreSQL",
		Long: `agerepl executes Cypher against an Apache AGE graph in PostgreSQL.

Files given as arguments are loaded and executed statement by statement
before the interactive shell starts. With an LLM provider configured, the
shell routes natural-language input through a send_cypher tool; \llm off
switches to direct Cypher execution.

Examples:
  agerepl                       Start the interactive shell
  agerepl seed.cypher           Load a file, then start the shell
  agerepl -e seed.cypher        Load a file and exit
  agerepl --config dev.yaml -v  Verbose run with a config file`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&opts.Execute, "execute", "e", false, "execute files and exit (do not start the shell)")
	cmd.Flags().StringVarP(&opts.SystemPrompt, "system-prompt", "s", "", "path to a file containing a system prompt for the LLM")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "path to a YAML config file")

	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func run(ctx context.Context, opts *RootOptions, files []string, out io.Writer) error {
	logger := newLogger(opts.Verbose)
	defer logger.Sync()

	settings, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Cypher REPL for AGE/PostgreSQL - graph: %s\n", settings.GraphName)

	conn, err := postgres.NewConnection(ctx, settings.DB.Host, settings.DB.Port, settings.DB.User, settings.DB.Password, settings.DB.Name)
	if err != nil {
		fmt.Fprintln(out, "Please ensure the PostgreSQL server is running and accessible.")
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Warnw("failed to close database connection", "error", err)
		}
	}()

	conn.InitAGE(ctx, settings.InitStatements(), logger)

	systemPrompt := settings.SystemPrompt
	if opts.SystemPrompt != "" {
		data, err := os.ReadFile(opts.SystemPrompt)
		if err != nil {
			return fmt.Errorf("error reading system prompt file: %w", err)
		}
		systemPrompt = string(data)
	}

	bridge := query.NewAGEBridge(conn.Session(), logger)
	coordinator := query.NewCoordinator(bridge, settings.GraphName, settings.DefaultSchema(), logger)

	if len(files) > 0 {
		repl.RunFiles(ctx, coordinator, files, out)
	}
	if opts.Execute {
		fmt.Fprintln(out, "\nExecution complete.")
		return nil
	}

	agent := buildAgent(settings, systemPrompt, coordinator, logger, out)

	session := repl.NewSession(coordinator, agent, settings.HistoryFile, os.Stdin, out, logger)
	return session.Run(ctx)
}

// buildAgent constructs the LLM agent, or returns nil to fall back to
// cypher-only mode when the provider is not usable.
func buildAgent(settings config.Settings, systemPrompt string, coordinator *query.Coordinator, logger *zap.SugaredLogger, out io.Writer) repl.Asker {
	model, err := llm.NewModel(settings.LLM)
	if err != nil {
		fmt.Fprintf(out, "LLM initialization error: %v\n", err)
		fmt.Fprintln(out, "Running in Cypher-only mode (LLM disabled)")
		return nil
	}

	send := func(ctx context.Context, q string) string {
		outcome := coordinator.ExecuteBatch(ctx, q)
		if outcome.Failed() {
			return outcome.Err
		}
		return tui.Format(outcome.Rows)
	}

	return llm.NewAgent(model, systemPrompt, settings.LLM.Temperature, send, logger)
}

func newLogger(verbose bool) *zap.SugaredLogger {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		logger, err := cfg.Build()
		if err != nil {
			return zap.NewNop().Sugar()
		}
		return logger.Sugar()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
