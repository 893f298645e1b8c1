package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/bekkerfineart/gallery/internal/adapters/repository"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/infrastructure/events"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/infrastructure/server"
	"github.com/bekkerfineart/gallery/internal/infrastructure/watcher"
)

// Set at build time with -ldflags "-X .../commands.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gallery API server",
		Long:  "Start the HTTP API, the websocket change feed and the data directory watcher under one supervisor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewResetCommand creates the reset command
func NewResetCommand() *cobra.Command {
	var inbox bool

	resetCmd := &cobra.Command{
		Use:       "reset [artworks|sales|settings|content|all]",
		Short:     "Restore data files to the seed data",
		Long:      "Overwrite data files in the data directory with the built-in seed data. A running server picks the change up through its directory watcher.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"artworks", "sales", "settings", "content", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd.Context(), args[0], inbox)
		},
	}
	resetCmd.Flags().BoolVar(&inbox, "inbox", false, "with all: also clear contact messages and activities")
	return resetCmd
}

// NewHashPasswordCommand creates the command that prints a bcrypt hash for ADMIN_PASSWORD_HASH
func NewHashPasswordCommand() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash to use as ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), cost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gallery version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bekker Fine Art gallery %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

func loadConfig() (*config.Config, *logger.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, appLogger
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// supervisorHook logs suture events through zap
func supervisorHook(log *logger.Logger) suture.EventHook {
	log = log.WithComponent("supervisor")
	return func(e suture.Event) {
		fields := make([]interface{}, 0, 2*len(e.Map()))
		for k, v := range e.Map() {
			fields = append(fields, k, v)
		}
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeStopTimeout:
			log.Errorw(e.String(), fields...)
		default:
			log.Warnw(e.String(), fields...)
		}
	}
}

func runServer(parent context.Context) error {
	cfg, appLogger := loadConfig()
	defer appLogger.Close()

	ctx, stop := signalContext(parent)
	defer stop()

	hub := events.NewHub(appLogger)
	store := repository.NewStore(repository.Options{
		Dir:       cfg.Storage.DataDir,
		Logger:    appLogger.WithComponent("store"),
		Publisher: hub,
		Tracker:   repository.NewWriteTracker(),
	})

	srv, err := server.New(cfg, store, hub, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	sup := suture.New("gallery", suture.Spec{
		EventHook: supervisorHook(appLogger),
		Timeout:   15 * time.Second,
	})
	sup.Add(hub)
	sup.Add(srv)
	if cfg.Storage.Watch {
		sup.Add(watcher.New(store.Dir(), store.CollectionForPath, store.Tracker(), hub, cfg.Storage.WatchDebounce, appLogger))
	}

	appLogger.Infow("Starting Bekker Fine Art gallery",
		"address", cfg.Server.Address(),
		"environment", cfg.App.Environment,
		"data_dir", store.Dir(),
		"watch", cfg.Storage.Watch,
	)

	err = sup.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor stopped: %w", err)
	}
	appLogger.Info("Server exited")
	return nil
}

func runReset(parent context.Context, target string, inbox bool) error {
	cfg, appLogger := loadConfig()
	defer appLogger.Close()

	ctx := parent
	if ctx == nil {
		ctx = context.Background()
	}
	store := repository.NewStore(repository.Options{
		Dir:    cfg.Storage.DataDir,
		Logger: appLogger.WithComponent("store"),
	})

	var err error
	switch target {
	case "artworks":
		_, err = store.Artworks.Reset(ctx)
	case "sales":
		_, err = store.Sales.Reset(ctx)
	case "settings":
		_, err = store.Settings.Reset(ctx)
	case "content":
		err = store.ResetContent(ctx)
	case "all":
		err = store.ResetAll(ctx, inbox)
	default:
		err = fmt.Errorf("unknown reset target %q", target)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Reset %s in %s\n", target, store.Dir())
	return nil
}
