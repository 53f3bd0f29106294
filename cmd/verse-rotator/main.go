package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"verse-rotator/internal/av"
	"verse-rotator/internal/bible"
	"verse-rotator/internal/cache"
	"verse-rotator/internal/compiler"
	"verse-rotator/internal/config"
	"verse-rotator/internal/logging"
	"verse-rotator/internal/notes"
	"verse-rotator/internal/rotator"
	"verse-rotator/internal/settings"
	"verse-rotator/internal/store"
	"verse-rotator/internal/ui"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every command shares.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *store.Store
	prefs *settings.Store
}

// openApp loads the configuration and opens storage. logToStderr selects
// stderr logging instead of the log file.
func openApp(logToStderr bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logPath := cfg.LogFile
	if logToStderr {
		logPath = "stderr"
	}
	log, err := logging.New(cfg.LogLevel, logPath)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
		return nil, err
	}
	prefs, err := settings.Open(cfg.SettingsDir)
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, ok := prefs.Get(settings.KeyIntervalMinutes); !ok && cfg.Interval != settings.DefaultIntervalMinutes {
		if err := prefs.Set(settings.KeyIntervalMinutes, strconv.Itoa(cfg.Interval)); err != nil {
			log.Warn("failed to seed interval", zap.Error(err))
		}
	}
	return &app{cfg: cfg, log: log, db: db, prefs: prefs}, nil
}

func (a *app) Close() {
	a.db.Close()
	_ = a.log.Sync()
}

// services are the feature components built over the app.
type services struct {
	ctrl     *rotator.Controller
	notes    *notes.Manager
	compiler *compiler.Compiler
	av       *av.System
}

// services builds the features. serialize, when set, wraps the initial
// load so it cannot interleave with scheduled ticks.
func (a *app) services(ctx context.Context, sched rotator.Scheduler, serialize func(func())) (*services, error) {
	verses := cache.NewVerses(a.db)
	ctrl, err := rotator.New(rotator.Options{
		Translations: a.db,
		Collections:  a.db,
		Prefs:        a.prefs,
		Scheduler:    sched,
		Logger:       a.log.Named("rotator"),
		Verses:       verses,
	})
	if err != nil {
		return nil, err
	}
	nm, err := notes.NewManager(a.db, a.prefs, a.log.Named("notes"))
	if err != nil {
		return nil, err
	}
	system := av.NewSystem(a.prefs, av.CommandPlayer{Command: a.cfg.PlayerCommand}, a.cfg.AssetsDir, a.log.Named("av"))
	ctrl.OnVerseChange(func(e bible.EntryRef) {
		a.log.Debug("verse changed", zap.String("reference", e.Reference))
		system.VerseChanged(ctx)
	})

	if serialize == nil {
		serialize = func(fn func()) { fn() }
	}
	serialize(func() {
		if err := ctrl.Init(ctx); err != nil {
			a.log.Warn("startup load failed", zap.Error(err))
		}
	})
	return &services{
		ctrl:     ctrl,
		notes:    nm,
		compiler: compiler.New(verses, a.prefs, a.log.Named("compiler")),
		av:       system,
	}, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "verse-rotator",
		Short: "Rotate through Bible verses on a timer",
		Long: `verse-rotator shows one verse or passage at a time and advances on a
countdown. Import a translation first with "verse-rotator import".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}
	root.AddCommand(
		newServeCommand(),
		newImportCommand(),
		newCompileCommand(),
		newNotesCommand(),
		newCacheCommand(),
	)
	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTUI() error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	disp := ui.NewDispatcher()
	svc, err := a.services(ctx, rotator.NewTickerScheduler(disp.Dispatch), nil)
	if err != nil {
		return err
	}
	defer svc.ctrl.Close()

	model := ui.New(ui.Deps{
		Context:    ctx,
		Controller: svc.ctrl,
		Dispatcher: disp,
		Notes:      svc.notes,
		Compiler:   svc.compiler,
		AV:         svc.av,
		Prefs:      a.prefs,
		Logger:     a.log.Named("ui"),
	})
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
