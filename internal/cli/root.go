// Package cli implements the ridebook command-line client.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Overland-East-Bay/ridebook/internal/cli/output"
	"github.com/Overland-East-Bay/ridebook/internal/platform/config"
	"github.com/Overland-East-Bay/ridebook/internal/platform/logging"
)

// Options configures a root command. Zero values select the process defaults.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Config skips loading configuration from disk and environment when set.
	Config *config.Config
	Wire   WireFunc
}

// runtime is the per-invocation state shared by subcommands.
type runtime struct {
	opts    Options
	cfgFile string

	cfg     *config.Config
	logger  *slog.Logger
	printer *output.Printer
	app     *App
}

// NewRootCommand builds the ridebook command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Wire == nil {
		opts.Wire = Wire
	}
	rt := &runtime{opts: opts}

	root := &cobra.Command{
		Use:   "ridebook",
		Short: "Book rides from the terminal",
		Long: `ridebook signs in to the ride booking service, previews routes between
free-text addresses and books rides.

Example usage:
  ridebook signup --name "Ada" --email ada@example.com
  ridebook route --pickup "Times Square" --dropoff "JFK Airport"
  ridebook book --pickup "Times Square" --dropoff "JFK Airport" --yes
  ridebook rides`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init(cmd.Context())
		},
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	root.PersistentFlags().StringVar(&rt.cfgFile, "config", "", "config file (default is $HOME/.config/ridebook/ridebook.yaml)")

	root.AddCommand(
		newSignupCmd(rt),
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newWhoamiCmd(rt),
		newRouteCmd(rt),
		newBookCmd(rt),
		newRidesCmd(rt),
	)
	return root
}

func (rt *runtime) init(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := rt.opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.Load(rt.cfgFile)
		if err != nil {
			return &output.CLIError{Summary: "invalid configuration", Detail: err.Error(), ExitCode: output.ExitConfigError}
		}
	}
	rt.cfg = cfg

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, rt.opts.Err)
	if err != nil {
		return &output.CLIError{Summary: "invalid logging configuration", Detail: err.Error(), ExitCode: output.ExitConfigError}
	}
	rt.logger = logger
	rt.printer = output.NewPrinter(rt.opts.Out, rt.opts.Err, output.ResolveColors(cfg.Output.Colors))

	app, err := rt.opts.Wire(ctx, cfg, output.NewNotifier(rt.printer), logger)
	if err != nil {
		return &output.CLIError{Summary: "could not start ridebook", Detail: err.Error(), ExitCode: output.ExitConfigError}
	}
	rt.app = app

	if err := app.Session.Restore(ctx); err != nil {
		rt.printer.Warning("could not read saved session: %v", err)
	}
	logger.Debug("configuration loaded",
		"api", cfg.API.BaseURL,
		"session_store", cfg.Session.Store,
		"geocoder", cfg.Geocoder.Provider,
		"router", cfg.Router.Provider,
	)
	return nil
}

// run wraps a command body so wired resources are released whatever it returns.
func (rt *runtime) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer rt.close()
		return fn(cmd, args)
	}
}

func (rt *runtime) close() {
	if rt.app != nil {
		rt.app.Close()
		rt.app = nil
	}
}

// Execute runs the CLI against the process streams and returns the exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand(Options{})
	err := root.ExecuteContext(ctx)
	if err == nil {
		return output.ExitSuccess
	}
	// Config failures happen before a printer exists.
	output.NewPrinter(os.Stdout, os.Stderr, output.ResolveColors(true)).Report(err)
	return output.ExitCodeOf(err)
}
