package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/inventiv/ivs/internal/aws"
	"github.com/inventiv/ivs/internal/client"
	"github.com/inventiv/ivs/internal/config"
	"github.com/inventiv/ivs/internal/config/data"
	"github.com/inventiv/ivs/internal/dao"
	"github.com/inventiv/ivs/internal/view"
)

const (
	appName    = config.AppName
	appVersion = "0.1.0"
)

var (
	ivsFlags *data.Flags
	rootCmd  = &cobra.Command{
		Use:           appName,
		Short:         "A terminal UI for the inventiv control plane",
		Long:          `ivs browses instances, users, action logs and archived traces of an inventiv control plane.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
		},
	}
)

func init() {
	ivsFlags = config.NewFlags()
	initIvsFlags()
	rootCmd.AddCommand(versionCmd, newListCmd(), newDemoCmd())
}

func initIvsFlags() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(ivsFlags.LogLevel, "logLevel", "l", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	pf.StringVar(ivsFlags.LogFile, "logFile", "", "Log file path, defaults to the state directory")
	pf.StringVar(ivsFlags.Profile, "profile", "", "API profile to use")
	pf.StringVar(ivsFlags.Endpoint, "endpoint", "", "Control plane endpoint, overrides the profile")

	rootCmd.Flags().Float32VarP(ivsFlags.RefreshRate, "refresh", "r", config.DefaultRefreshRate, "Refresh rate in seconds")
	rootCmd.Flags().StringVarP(ivsFlags.Command, "command", "c", "", "Startup command/view")
	rootCmd.Flags().BoolVar(ivsFlags.ReadOnly, "readonly", false, "Enable read-only mode")
	rootCmd.Flags().BoolVar(ivsFlags.Write, "write", false, "Enable write mode (overrides readonly)")
	rootCmd.Flags().BoolVar(ivsFlags.Headless, "headless", false, "Run without crumbs and menu")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// session holds what every command needs to talk to the control plane.
type session struct {
	cfg     *config.Config
	factory *dao.APIFactory
	log     *slog.Logger
	closer  io.Closer
}

func (s *session) Close() {
	if s.closer != nil {
		_ = s.closer.Close()
	}
}

// bootstrap resolves locations, profiles and configuration and connects the
// factory. The connection is not verified.
func bootstrap(flags *data.Flags) (*session, error) {
	if err := config.InitLocs(); err != nil {
		return nil, fmt.Errorf("failed to initialize locations: %w", err)
	}
	if *flags.LogFile == "" {
		*flags.LogFile = config.AppLogFile
	}

	settings, err := client.NewProfileManager(config.AppCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load API profiles: %w", err)
	}

	cfg := config.NewConfig(settings)
	if err := cfg.Load(config.AppConfigFile, false); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Refine(flags, settings); err != nil {
		return nil, fmt.Errorf("failed to refine configuration: %w", err)
	}
	_ = cfg.Save(config.AppConfigFile, false)

	logger, closer, err := config.NewLogger(*flags.LogFile, cfg.Ivs.Logger.Level, cfg.Ivs.Logger.JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ccfg, err := cfg.ClientConfig()
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	conn, err := client.NewAPIClient(settings, ccfg)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	cfg.SetConnection(conn)

	var archive dao.ArchiveStore
	if a := cfg.Ivs.Archive; a.Enabled() {
		archive = aws.NewArchive(aws.ArchiveConfig{
			Bucket:  a.Bucket,
			Prefix:  a.Prefix,
			Region:  a.Region,
			Profile: a.AWSProfile,
			Timeout: ccfg.Timeout,
		})
	}
	logger.Info("session ready", "profile", conn.ActiveProfile(), "endpoint", conn.Endpoint(), "archive", archive != nil)

	return &session{
		cfg:     cfg,
		factory: dao.NewFactory(conn, archive),
		log:     logger,
		closer:  closer,
	}, nil
}

func run(*cobra.Command, []string) error {
	s, err := bootstrap(ivsFlags)
	if err != nil {
		return err
	}
	defer s.Close()

	aliases := config.NewAliases()
	if err := aliases.Load(); err != nil {
		s.log.Warn("failed to load aliases", "error", err)
	}
	hotKeys := config.NewHotKeys()
	if err := hotKeys.Load(); err != nil {
		s.log.Warn("failed to load hotkeys", "error", err)
	}

	app := view.NewApp(s.cfg, aliases, hotKeys, s.factory, s.log, appVersion)
	if err := app.Init(); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(*ivsFlags.Command)
}

// withTimeout bounds headless commands.
func withTimeout(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	timeout, err := cfg.Ivs.GetAPITimeout()
	if err != nil || timeout <= 0 {
		timeout = config.DefaultAPITimeout
	}

	return context.WithTimeout(parent, 2*timeout)
}
