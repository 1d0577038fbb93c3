// Package cli implements the castlists command-line interface: a thin
// handler over the castlist manager and the SQLite document store.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/castlists/internal/castlist"
	"github.com/mesh-intelligence/castlists/internal/config"
	"github.com/mesh-intelligence/castlists/internal/paths"
	"github.com/mesh-intelligence/castlists/internal/sqlite"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// DefaultWorkspace is used when --workspace is not given.
const DefaultWorkspace = "main"

// rootFlags holds global flag values shared by all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	workspace string
	actor     string
	jsonMode  bool
	verbose   bool
}

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// classify maps a manager or store error to its exit code: bad input and
// missing entities are user errors; everything else is a system error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range []error{
		types.ErrNotFound, types.ErrInvalidID, types.ErrInvalidData, types.ErrInvalidName,
		types.ErrInvalidType, types.ErrInvalidState, types.ErrNotVirtual, types.ErrWorkspaceRequired,
		castlist.ErrNoSeasonRegistry, castlist.ErrNoGroupSource,
	} {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}

// ExitCode returns the process exit code for an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// NewRootCmd creates the top-level "castlists" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:   "castlists",
		Short: "Manage castlists and their tribe memberships",
		Long: "castlists manages named display groupings of tribes, including virtual\n" +
			"castlists derived from legacy tribe tags and their materialization.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&f.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.StringVarP(&f.workspace, "workspace", "w", DefaultWorkspace, "workspace id")
	pf.StringVar(&f.actor, "actor", "", "actor recorded on changes (default: config default_actor)")
	pf.BoolVar(&f.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(f),
		newListCmd(f),
		newShowCmd(f),
		newCreateCmd(f),
		newUpdateCmd(f),
		newDeleteCmd(f),
		newLinkCmd(f),
		newUnlinkCmd(f),
		newTribesCmd(f),
		newMaterializeCmd(f),
		newStatsCmd(f),
		newSearchCmd(f),
		newImportCmd(f),
		newTribeCmd(f),
		newSeasonCmd(f),
		newGroupCmd(f),
	)
	return root
}

// Execute runs the root command with args, printing any error to stderr,
// and returns the exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return ExitCode(err)
}

// session is an attached store plus the manager built on it for one
// command invocation.
type session struct {
	cfg       types.Config
	backend   *sqlite.Backend
	manager   *castlist.Manager
	logger    *slog.Logger
	workspace string
	actor     string
	out       io.Writer
	jsonMode  bool
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveConfig loads the configuration and resolves the data directory.
func resolveConfig(f *rootFlags) (string, types.Config, error) {
	configDir, err := paths.ResolveConfigDir(f.configDir)
	if err != nil {
		return "", types.Config{}, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return "", types.Config{}, userError(err)
	}
	dataDir, err := paths.ResolveDataDir(f.dataDir, cfg.DataDir)
	if err != nil {
		return "", types.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg.DataDir = dataDir
	return configDir, cfg, nil
}

// openSession attaches the store. The caller must call close.
func openSession(cmd *cobra.Command, f *rootFlags) (*session, error) {
	_, cfg, err := resolveConfig(f)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), f.verbose)

	backend := sqlite.NewBackend(sqlite.WithLogger(logger))
	if err := backend.Attach(cfg); err != nil {
		return nil, sysError(fmt.Errorf("attach store: %w", err))
	}
	actor := f.actor
	if actor == "" {
		actor = cfg.Actor()
	}
	return &session{
		cfg:     cfg,
		backend: backend,
		manager: castlist.NewManager(backend,
			castlist.WithLogger(logger),
			castlist.WithSeasonRegistry(backend),
			castlist.WithGroupSource(backend),
			castlist.WithDefaultActor(actor),
		),
		logger:    logger,
		workspace: f.workspace,
		actor:     actor,
		out:       cmd.OutOrStdout(),
		jsonMode:  f.jsonMode,
	}, nil
}

func (s *session) close() error {
	if err := s.backend.Detach(); err != nil {
		return sysError(fmt.Errorf("detach store: %w", err))
	}
	return nil
}

// withSession opens a session, runs fn and always detaches. An fn error
// wins over a detach error.
func withSession(cmd *cobra.Command, f *rootFlags, fn func(*session) error) error {
	s, err := openSession(cmd, f)
	if err != nil {
		return err
	}
	runErr := fn(s)
	closeErr := s.close()
	if runErr != nil {
		return classify(runErr)
	}
	return closeErr
}
