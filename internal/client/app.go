package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/bank-mmudzi/internal/adapter"
	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// App is mmudzictl.
type App struct {
	cfg    config.ClientConfig
	build  models.AppBuildInfo
	newAPI APIFactory
	out    io.Writer
	logger *logger.Logger

	format  string
	verbose bool
}

type Option func(*App)

// WithAPIFactory replaces the HTTP operator API.
func WithAPIFactory(f APIFactory) Option {
	return func(a *App) { a.newAPI = f }
}

// WithOutput redirects command output; stdout by default.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

func NewApp(cfg config.ClientConfig, build models.AppBuildInfo, logger *logger.Logger, opts ...Option) *App {
	a := &App{
		cfg:    cfg,
		build:  build,
		newAPI: adapter.NewHTTPOperatorAPI,
		out:    os.Stdout,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run parses args and executes the selected command.
func (a *App) Run(args []string) error {
	cmd := a.Command()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

// Command builds the root command. Persistent flags override the values
// loaded from the environment.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "mmudzictl",
		Short:         "Operate the mmudzi data layer",
		Long:          "mmudzictl inspects the connection mode and sync queue of mmudzi-server, triggers sync sessions and resolves conflicts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.format != FormatText && a.format != FormatJSON {
				return fmt.Errorf("%w %q: must be %s or %s", ErrInvalidFormat, a.format, FormatText, FormatJSON)
			}
			if a.verbose {
				return logger.SetLevel("debug")
			}
			return nil
		},
	}
	root.SetOut(a.out)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfg.Address, "address", "a", a.cfg.Address, "operator API base URL (env MMUDZI_ADDRESS)")
	flags.StringVar(&a.cfg.Token, "token", a.cfg.Token, "bearer token (env MMUDZI_TOKEN)")
	flags.DurationVar(&a.cfg.RequestTimeout, "timeout", a.cfg.RequestTimeout, "request timeout (env MMUDZI_TIMEOUT)")
	flags.StringVar(&a.format, "format", FormatText, "output format (text|json)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log API failures")

	root.AddCommand(
		a.statusCommand(),
		a.syncCommand(),
		a.recheckCommand(),
		a.conflictsCommand(),
		a.logCommand(),
		a.tokenCommand(),
		a.versionCommand(),
	)

	return root
}

// api builds the operator API for one command invocation.
func (a *App) api() (adapter.OperatorAPI, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return a.newAPI(a.cfg, a.logger)
}

func (a *App) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	// a little headroom over the HTTP client timeout
	return context.WithTimeout(ctx, a.cfg.RequestTimeout+time.Second)
}
