package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/akyairhashvil/timecapsule/internal/config"
	"github.com/akyairhashvil/timecapsule/internal/database"
	"github.com/akyairhashvil/timecapsule/internal/remote"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/akyairhashvil/timecapsule/internal/tui"
	"github.com/akyairhashvil/timecapsule/internal/util"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	storeKind  string
	dbPath     string
	apiURL     string
	verbose    bool
	debug      bool
}

// app carries what every command needs once flags, config and environment
// are resolved.
type app struct {
	flags   globalFlags
	cfg     config.Config
	cfgPath string
	dataDir string
	logger  *log.Logger

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

// setup resolves configuration: defaults, then the YAML file, then .env and
// CAPSULE_* variables, then flags.
func (a *app) setup(cmd *cobra.Command) error {
	a.in = bufio.NewReader(cmd.InOrStdin())
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	a.dataDir = util.DataDir(config.AppName)

	config.LoadDotEnv(".env")
	path := a.flags.configPath
	if path == "" {
		path = filepath.Join(a.dataDir, config.ConfigFileName)
	}
	a.cfgPath = util.ExpandHome(path)
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	if a.flags.storeKind != "" {
		cfg.Store.Kind = a.flags.storeKind
	}
	if a.flags.dbPath != "" {
		cfg.Store.DBPath = a.flags.dbPath
	}
	if a.flags.apiURL != "" {
		cfg.Store.APIURL = a.flags.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg
	if !tui.SetTheme(cfg.UI.Theme) {
		fmt.Fprintf(a.errOut, "unknown theme %q, using default\n", cfg.UI.Theme)
	}
	a.logger = util.NewLogger(a.errOut, a.logLevel())
	a.logger.Debug("config resolved", "store", cfg.Store.Kind, "config", path)
	return nil
}

func (a *app) logLevel() string {
	switch {
	case a.flags.debug:
		return "debug"
	case a.flags.verbose:
		return "info"
	}
	return a.cfg.Log.Level
}

func (a *app) dbPath() string {
	if a.cfg.Store.DBPath != "" {
		return util.ExpandHome(a.cfg.Store.DBPath)
	}
	return filepath.Join(a.dataDir, config.DBFileName)
}

func (a *app) openDatabase(ctx context.Context) (*database.Database, error) {
	path := a.dbPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := database.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// openStore returns the configured record store and a func releasing it.
func (a *app) openStore(ctx context.Context) (store.CapsuleRecordStore, func(), error) {
	switch a.cfg.Store.Kind {
	case config.StoreMemory:
		return store.NewMemory(), func() {}, nil
	case config.StoreRemote:
		c, err := remote.New(a.cfg.Store.APIURL, remote.WithTimeout(a.cfg.Store.Timeout))
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	default:
		db, err := a.openDatabase(ctx)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { util.LogError(a.logger, "close database", db.Close()) }, nil
	}
}

// userError carries the message shown to the user alongside the cause.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

var errLocked = errors.New("capsule is still locked")
