package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/eisen/internal/config"
	"github.com/tgienger/eisen/internal/db"
	"github.com/tgienger/eisen/internal/housekeeping"
	"github.com/tgienger/eisen/internal/state"
	"github.com/tgienger/eisen/internal/ui"
)

// BuildInfo is set via ldflags
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func newRootCmd(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   "eisen",
		Short: "eisen - an Eisenhower matrix for your terminal",
		Long: `eisen keeps projects and tasks sorted into the four quadrants of the
Eisenhower matrix. Everything is stored locally.

Run without arguments to open the terminal UI.`,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newExportCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newVersionCmd(info))

	root.Version = info.Version
	return root
}

// Execute runs the root command
func Execute(info BuildInfo) error {
	if err := newRootCmd(info).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// session is everything a command needs to work on the database
type session struct {
	cfg   *config.Config
	db    *db.DB
	store *state.Store
	log   *slog.Logger
}

func (s *session) Close() error {
	return s.db.Close()
}

// openSession loads the configuration and opens the database. Logs go to
// logOut.
func openSession(logOut io.Writer, notifier state.Notifier) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return openSessionWith(cfg, newLogger(cfg, logOut), notifier)
}

func openSessionWith(cfg *config.Config, logger *slog.Logger, notifier state.Notifier) (*session, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("database opened", slog.String("path", cfg.Storage.Path))

	opts := []state.Option{
		state.WithLogger(logger),
		state.WithUndoDepth(cfg.App.UndoDepth),
		state.WithLocation(loc),
	}
	if notifier != nil {
		opts = append(opts, state.WithNotifier(notifier))
	}

	return &session{
		cfg:   cfg,
		db:    database,
		store: state.NewStore(database, opts...),
		log:   logger,
	}, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// the alt screen owns the terminal, so logs go to a file
	if err := os.MkdirAll(filepath.Dir(cfg.App.LogFile), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := tea.LogToFile(cfg.App.LogFile, "eisen")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := newLogger(cfg, logFile)
	slog.SetDefault(logger)

	status := &ui.Status{}
	sess, err := openSessionWith(cfg, logger, status)
	if err != nil {
		return err
	}
	defer sess.Close()

	loc, _ := cfg.Location()
	p := tea.NewProgram(ui.NewApp(sess.store, status), tea.WithAltScreen())

	sched, err := housekeeping.New(sess.store, loc,
		housekeeping.WithLogger(logger),
		housekeeping.OnPurge(func(n int64, err error) {
			p.Send(ui.PurgedMsg{Count: n, Err: err})
		}),
	)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run application: %w", err)
	}
	return nil
}
