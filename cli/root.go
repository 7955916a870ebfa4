// ABOUTME: Root cobra command: global flags, config loading and logger setup
// ABOUTME: Commands share one app value carrying config, logger and store helpers
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/harperreed/shopmigrate/config"
	"github.com/harperreed/shopmigrate/db"
	"github.com/harperreed/shopmigrate/events"
	"github.com/harperreed/shopmigrate/importer"
	"github.com/harperreed/shopmigrate/quarantine"
)

type app struct {
	v          *viper.Viper
	configFile string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the shopmigrate command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "shopmigrate",
		Short:         "Migrate a legacy repair-shop database into SQL",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `shopmigrate decodes the fixed-width customer and claim files and the
dBase inventory tables of a legacy shop system and loads them into a SQL
store as clients, repairs and parts.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := newLogger(a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./shopmigrate.yaml or $XDG_CONFIG_HOME/shopmigrate/shopmigrate.yaml)")
	flags.String("data-dir", "", "directory holding the legacy files")
	flags.String("database-url", "", "target store: sqlite path, mysql:// or postgres:// url")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	_ = a.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = a.v.BindPFlag("database_url", flags.Lookup("database-url"))

	root.AddCommand(
		newMigrateCommand(a),
		newInspectCommand(a),
		newRunsCommand(a),
		newQuarantineCommand(a),
		newReviewCommand(a),
		newMCPCommand(a),
		newInitCommand(a),
	)
	return root
}

// Execute runs the command tree with ctx, which the caller cancels on
// SIGINT.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if term.IsTerminal(int(os.Stderr.Fd())) {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func (a *app) openDB(ctx context.Context) (*db.DB, error) {
	database, err := db.Open(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("opened store", zap.String("dialect", string(database.Dialect())))
	return database, nil
}

// openQuarantine returns nil when no quarantine directory is configured.
func (a *app) openQuarantine() (*quarantine.Store, error) {
	if a.cfg.QuarantineDir == "" {
		return nil, nil
	}
	return quarantine.Open(a.cfg.QuarantineDir)
}

// openPublisher returns nil when no broker is configured.
func (a *app) openPublisher() (*events.Publisher, error) {
	if a.cfg.AMQPURL == "" {
		return nil, nil
	}
	return events.Dial(a.cfg.AMQPURL, a.cfg.AMQPExchange)
}

func (a *app) newLoader(database *db.DB, dryRun bool, extra ...importer.Option) (*importer.Loader, error) {
	dataDir, err := a.cfg.RequireDataDir()
	if err != nil {
		return nil, err
	}
	opts, err := a.cfg.LoaderOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, importer.WithLogger(a.logger), importer.WithDryRun(dryRun))
	opts = append(opts, extra...)
	return importer.New(database, dataDir, opts...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
