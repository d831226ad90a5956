package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/dailystretch/internal/clock"
	"github.com/sadopc/dailystretch/internal/config"
	"github.com/sadopc/dailystretch/internal/logging"
	"github.com/sadopc/dailystretch/internal/notify"
	"github.com/sadopc/dailystretch/internal/store"
	"github.com/sadopc/dailystretch/internal/timer"
	"github.com/sadopc/dailystretch/internal/tui"
	"github.com/spf13/cobra"
)

const (
	appName     = "dailystretch"
	logFileName = "dailystretch.log"
)

// flags holds values shared by every command.
type flags struct {
	configPath   string
	dbPath       string
	userKey      string
	studyMinutes int
	breakMinutes int
	redisAddr    string
}

// NewRootCmd builds the dailystretch command tree.
func NewRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Study/break timer with stretch and hydration reminders",
		Long: `dailystretch runs a study/break countdown in the terminal.
The countdown survives restarts, and optional reminders nudge you to stretch
and drink water on a fixed interval.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(f)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default <config dir>/dailystretch/config.yaml)")
	pf.StringVar(&f.dbPath, "db", "", "SQLite database path")
	pf.StringVar(&f.userKey, "user", "", "user key that namespaces stored state")
	pf.IntVar(&f.studyMinutes, "study", 0, "study length in minutes")
	pf.IntVar(&f.breakMinutes, "break", 0, "break length in minutes")
	pf.StringVar(&f.redisAddr, "redis-addr", "", "keep timer state in Redis at this address")

	rootCmd.AddCommand(newStatusCmd(f), newExportCmd(f), newClearCmd(f))
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads the config file, then applies environment and flag
// overrides. It returns the config and the path it was read from.
func loadConfig(f *flags) (config.Config, string, error) {
	path := f.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Default(), "", err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, err
	}
	config.ApplyEnv(&cfg)

	if f.dbPath != "" {
		cfg.DBPath = f.dbPath
	}
	if f.userKey != "" {
		cfg.UserKey = f.userKey
	}
	if f.studyMinutes > 0 {
		cfg.Session.StudyMinutes = f.studyMinutes
	}
	if f.breakMinutes > 0 {
		cfg.Session.BreakMinutes = f.breakMinutes
	}
	if f.redisAddr != "" {
		cfg.RedisAddr = f.redisAddr
	}
	return cfg, path, nil
}

// backends are the opened stores. durable is the SQLite store unless a Redis
// address is configured.
type backends struct {
	store   *store.Store
	redis   *store.RedisKV
	durable timer.Storage
}

func openBackends(cfg config.Config) (*backends, error) {
	dbPath := cfg.DBPath
	if dbPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		dbPath = p
	}

	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	b := &backends{store: s, durable: s}

	if cfg.RedisAddr != "" {
		r, err := store.NewRedisKV(store.RedisOptions{Addr: cfg.RedisAddr})
		if err != nil {
			s.Close()
			return nil, err
		}
		b.redis = r
		b.durable = r
	}
	return b, nil
}

func (b *backends) Close() error {
	var errs []error
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	errs = append(errs, b.store.Close())
	return errors.Join(errs...)
}

// openLogger logs next to the config file. The terminal belongs to the UI,
// so a log that cannot be opened is dropped rather than printed.
func openLogger() *logging.Logger {
	dir, err := config.Dir()
	if err != nil {
		return logging.Discard()
	}
	logger, err := logging.OpenFile(filepath.Join(dir, logFileName))
	if err != nil {
		return logging.Discard()
	}
	return logger
}

func runTUI(f *flags) error {
	cfg, path, err := loadConfig(f)
	if err != nil {
		return err
	}

	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	logger := openLogger()
	defer logger.Close()
	logger.Info("starting", logging.F("user", cfg.UserKey), logging.F("redis", cfg.RedisAddr != ""))

	opts := tui.Options{
		Store:      b.store,
		Durable:    b.durable,
		Clock:      clock.System,
		Config:     cfg,
		ConfigPath: path,
		Bell:       notify.NewBell(os.Stdout),
		Logger:     logger,
	}
	if cfg.Notifications {
		bus := notify.NewDBus(appName)
		defer bus.Close()
		opts.Permission = bus
		opts.System = bus
	} else {
		opts.Permission = notify.StaticPermission(notify.PermissionDenied)
	}

	app := tui.NewApp(opts)
	defer app.Shutdown()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", logging.F("err", err))
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
