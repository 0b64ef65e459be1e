package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeanpaul/medremind/internal/alert"
	"github.com/jeanpaul/medremind/internal/config"
	"github.com/jeanpaul/medremind/internal/export"
	"github.com/jeanpaul/medremind/internal/health"
	"github.com/jeanpaul/medremind/internal/logging"
	"github.com/jeanpaul/medremind/internal/reminder"
	"github.com/jeanpaul/medremind/internal/scheduler"
	"github.com/jeanpaul/medremind/internal/session"
	"github.com/jeanpaul/medremind/internal/store"
	"github.com/jeanpaul/medremind/internal/store/codec"
	"github.com/jeanpaul/medremind/internal/tui"
	"github.com/jeanpaul/medremind/pkg/version"
)

func main() {
	configFlag := flag.String("config", "", "Config file (default: ./config.yaml or ~/.config/medremind/config.yaml)")
	dataFlag := flag.String("data", "", "Medication data file")
	backendFlag := flag.String("backend", "", "Storage backend ("+strings.Join(codec.Kinds(), ", ")+")")
	plainFlag := flag.Bool("plain", false, "Use the line-oriented menu instead of the full-screen interface")
	intervalFlag := flag.Duration("interval", 0, "How often to check the schedule (default 1m)")
	silentFlag := flag.Bool("silent", false, "Print reminders without sound")
	versionFlag := flag.Bool("version", false, "Print version")
	helpFlag := flag.Bool("help", false, "Show help")
	flag.BoolVar(helpFlag, "h", false, "Show help")

	flag.Usage = showHelp
	flag.Parse()

	if *helpFlag {
		showHelp()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("medremind %s (%s)\n", version.Version, version.Commit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatal("config error: %s", err)
	}
	if *dataFlag != "" {
		cfg.DataPath = *dataFlag
		if *backendFlag == "" {
			cfg.Backend = codec.KindFromPath(*dataFlag)
		}
	}
	if *backendFlag != "" {
		cfg.Backend = *backendFlag
	}
	if *intervalFlag != 0 {
		cfg.CheckInterval = *intervalFlag
	}
	if *silentFlag {
		cfg.Alert.Mode = alert.ModeSilent
	}
	if err := cfg.Validate(); err != nil {
		fatal("%s", err)
	}

	log, closeLog, err := logging.Open(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fatal("%s", err)
	}
	defer closeLog()
	slog.SetDefault(log)

	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "list":
			cmdList(cfg, log)
			return
		case "export":
			if len(args) < 2 {
				fatal("usage: medremind export <file.xlsx|file.json|file.yaml|file.txt|file.db>")
			}
			cmdExport(cfg, log, args[1])
			return
		case "import":
			cmdImport(cfg, log, args[1:])
			return
		case "doctor":
			cmdDoctor(cfg)
			return
		case "help":
			showHelp()
			return
		default:
			fatal("unknown command %q (try 'medremind help')", args[0])
		}
	}

	if err := run(cfg, log, *plainFlag || !isTerminal()); err != nil {
		closeLog()
		fatal("%s", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) *store.Store {
	c, err := codec.Open(cfg.Backend, cfg.DataPath)
	if err != nil {
		fatal("open %s: %s", cfg.DataPath, err)
	}
	st := store.New(c, store.WithLogger(log))
	if err := st.Restore(ctx); err != nil {
		st.Close()
		fatal("%s", err)
	}
	return st
}

// run starts the scheduler and an interactive session. It returns when the
// session ends or a signal arrives, after the final save.
func run(cfg *config.Config, log *slog.Logger, plain bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := openStore(ctx, cfg, log)
	defer st.Close()

	out := session.NewSyncWriter(os.Stdout)
	notifier, err := alert.FromSettings(alert.Settings{
		Mode:     cfg.Alert.Mode,
		Command:  cfg.Alert.Command,
		Duration: cfg.Alert.Duration,
		Timeout:  cfg.Alert.Timeout,
	}, out, log)
	if err != nil {
		return err
	}

	var sink reminder.Sink
	var tuiSink *tui.Sink
	if plain {
		sink = reminder.NewWriterSink(out)
	} else {
		tuiSink = &tui.Sink{}
		sink = tuiSink
	}

	sched := scheduler.New(st, reminder.NewAction(notifier, sink, log),
		scheduler.WithInterval(cfg.CheckInterval),
		scheduler.WithLogger(log),
		scheduler.WithPersistOnFire(cfg.PersistOnFire),
	)
	log.Info("started", "version", version.Version, "data", cfg.DataPath, "backend", cfg.Backend,
		"interval", cfg.CheckInterval, "plain", plain)

	return serve(ctx, cancel, st, sched, func(ctx context.Context) error {
		if plain {
			launchPlain(ctx, st, out, log)
			return nil
		}
		return launchTUI(ctx, cfg, st, tuiSink, log)
	}, log)
}

// serve runs sched in the background for as long as launch runs. However
// launch ends, the scheduler is stopped and joined and the store saved
// before the launch error is returned.
func serve(ctx context.Context, cancel context.CancelFunc, st *store.Store, sched *scheduler.Scheduler,
	launch func(context.Context) error, log *slog.Logger) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sched.Run(ctx); err != nil {
			log.Error("scheduler stopped", "error", err)
		}
	}()

	launchErr := launch(ctx)

	cancel()
	wg.Wait()

	// Counters changed by reminders are otherwise lost when persist_on_fire
	// is off.
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()
	if err := st.Persist(saveCtx); err != nil {
		log.Error("final save failed", "error", err)
		return errors.Join(launchErr, fmt.Errorf("final save: %w", err))
	}
	log.Info("stopped")
	return launchErr
}

func launchPlain(ctx context.Context, st *store.Store, out *session.SyncWriter, log *slog.Logger) {
	done := make(chan error, 1)
	go func() {
		done <- session.New(st, os.Stdin, out, log).Run(ctx)
	}()
	// The session blocks on stdin, so a signal has to be observed here.
	select {
	case err := <-done:
		if err != nil {
			log.Error("session ended", "error", err)
		}
	case <-ctx.Done():
		fmt.Fprintln(out, "\nExiting...")
	}
}

func launchTUI(ctx context.Context, cfg *config.Config, st *store.Store, sink *tui.Sink, log *slog.Logger) error {
	m := tui.NewModel(ctx, st, tui.Info{
		DataPath:      cfg.DataPath,
		Backend:       cfg.Backend,
		CheckInterval: cfg.CheckInterval.String(),
		AlertMode:     cfg.Alert.Mode,
		PersistOnFire: cfg.PersistOnFire,
		Theme:         cfg.Theme,
		Version:       version.Version,
	}, log)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	sink.Attach(p)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func cmdList(cfg *config.Config, log *slog.Logger) {
	ctx := context.Background()
	st := openStore(ctx, cfg, log)
	defer st.Close()

	style := ""
	if !isTerminal() {
		style = "notty"
	}
	out, err := export.Render(export.Markdown(st.List()), style, 100)
	if err != nil {
		fatal("render: %s", err)
	}
	fmt.Print(out)
}

func cmdExport(cfg *config.Config, log *slog.Logger, path string) {
	ctx := context.Background()
	st := openStore(ctx, cfg, log)
	defer st.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		f, err := os.Create(path)
		if err != nil {
			fatal("%s", err)
		}
		if err := export.WriteXLSX(f, st.List()); err != nil {
			f.Close()
			fatal("export failed: %s", err)
		}
		if err := f.Close(); err != nil {
			fatal("%s", err)
		}
	} else {
		kind := codec.KindFromPath(path)
		c, err := codec.Open(kind, path)
		if err != nil {
			fatal("%s", err)
		}
		err = c.Save(ctx, st.Snapshot())
		c.Close()
		if err != nil {
			fatal("export failed: %s", err)
		}
	}
	fmt.Println(tui.BannerStyle.Render(fmt.Sprintf("  ✓ Exported %d medications to %s", st.Len(), path)))
}

func cmdImport(cfg *config.Config, log *slog.Logger, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Show what would change without saving")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fatal("usage: medremind import [--dry-run] <glob>")
	}

	ctx := context.Background()
	paths, err := export.Match(fs.Arg(0))
	if err != nil {
		fatal("%s", err)
	}
	srcs := make([]export.Source, 0, len(paths))
	for _, p := range paths {
		src, err := export.ReadSource(ctx, p)
		if err != nil {
			fatal("%s", err)
		}
		fmt.Printf("  %s %s (%d medications)\n", tui.HelpStyle.Render("●"), p, len(src.Medications))
		srcs = append(srcs, src)
	}

	st := openStore(ctx, cfg, log)
	defer st.Close()

	if *dryRun {
		diff, err := export.Preview(st, srcs)
		if err != nil {
			fatal("%s", err)
		}
		if diff == "" {
			fmt.Println(tui.HelpStyle.Render("  No changes"))
			return
		}
		fmt.Print(diff)
		return
	}

	n, err := export.Import(st, srcs)
	if err != nil {
		fatal("import failed: %s", err)
	}
	if err := st.Persist(ctx); err != nil {
		fatal("%s", err)
	}
	fmt.Println(tui.BannerStyle.Render(fmt.Sprintf("  ✓ Imported %d medications", n)))
}

func cmdDoctor(cfg *config.Config) {
	fmt.Println(tui.BannerStyle.Render("  Medremind Health Check"))
	fmt.Println()

	statuses := health.Check(context.Background(), cfg)
	for _, s := range statuses {
		fmt.Printf("  %s %-15s ", tui.HelpStyle.Render("●"), s.Name)
		if s.OK {
			fmt.Printf("%s %s %s\n",
				tui.OKStyle.Render("✓ OK"),
				s.Detail,
				tui.HelpStyle.Render(s.Latency.Round(time.Millisecond).String()),
			)
		} else {
			fmt.Printf("%s\n", tui.ErrorStyle.Render("✗ "+s.Error))
		}
	}
	fmt.Println()
	if !health.Healthy(statuses) {
		fmt.Println(tui.HelpStyle.Render("  Some checks failed; reminders may not work as expected"))
		os.Exit(1)
	}
	fmt.Println(tui.BannerStyle.Render("  ✓ All checks passed"))
}

func isTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("error: "+msg))
	os.Exit(1)
}

func showHelp() {
	help := `
` + tui.BannerStyle.Render("Medremind") + ` - medication reminders for your terminal

` + tui.ActiveLabelStyle.Render("USAGE:") + `
  medremind [flags]              Start reminders and the interactive menu
  medremind [flags] <command>    Run a command

` + tui.ActiveLabelStyle.Render("COMMANDS:") + `
  list                           Show all medications as a table
  export <file>                  Export to .xlsx, .json, .yaml, .txt or .db
  import [--dry-run] <glob>      Add medications from matching files (e.g. 'backup/**/*.txt')
  doctor                         Check config, storage and alert sound
  help                           Show this help

` + tui.ActiveLabelStyle.Render("FLAGS:") + `
  --config <file>                Config file
  --data <file>                  Medication data file (backend follows the extension)
  --backend <kind>               Storage backend: ` + strings.Join(codec.Kinds(), ", ") + `
  --plain                        Line-oriented menu (default when stdin is not a terminal)
  --interval <duration>          Schedule check interval (default 1m)
  --silent                       No alert sound
  --version                      Show version
  --help, -h                     Show this help

` + tui.ActiveLabelStyle.Render("ENVIRONMENT:") + `
  MEDREMIND_DATA_PATH, MEDREMIND_BACKEND, MEDREMIND_ALERT_MODE, MEDREMIND_LOG_LEVEL, ...
  override the matching config keys.

` + tui.ActiveLabelStyle.Render("EXAMPLES:") + `
  medremind                      Start with ~/.config/medremind/medications.json
  medremind --data meds.db       Use a bolt database
  medremind export meds.xlsx     Write a spreadsheet
  medremind import --dry-run 'old/*.txt'
`
	fmt.Println(help)
}
