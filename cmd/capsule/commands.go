package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/capsule"
	"github.com/akyairhashvil/timecapsule/internal/config"
	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/akyairhashvil/timecapsule/internal/timegate"
	"github.com/akyairhashvil/timecapsule/internal/tui"
	"github.com/akyairhashvil/timecapsule/internal/unlock"
	"github.com/akyairhashvil/timecapsule/internal/util"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "capsule",
		Short:        "Seal messages for the future and open them when their time comes",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context(), "")
		},
	}
	root.Version = buildVersion()

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default <data dir>/config.yaml)")
	pf.StringVar(&a.flags.storeKind, "store", "", "record store: sqlite, remote or memory")
	pf.StringVar(&a.flags.dbPath, "db", "", "sqlite database path")
	pf.StringVar(&a.flags.apiURL, "api-url", "", "remote store base URL")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log at info level")
	pf.BoolVar(&a.flags.debug, "debug", false, "log at debug level")

	root.AddCommand(initCmd(a), openCmd(a), viewCmd(a), createCmd(a), statsCmd(a), purgeCmd(a))
	return root
}

func initCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Create the data directory and write the config file",
		Example: "  capsule init\n  capsule init --force",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := util.EnsureDataDir(config.AppName)
			if err != nil {
				return err
			}
			if _, err := os.Stat(a.cfgPath); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", a.cfgPath)
			}
			if err := os.MkdirAll(filepath.Dir(a.cfgPath), 0o700); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := config.Save(a.cfgPath, a.cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Data directory: %s\nConfig written to %s\n", dir, a.cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func openCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <code>",
		Short: "Open a capsule in the interactive viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), args[0])
		},
	}
}

// runTUI hands the terminal to the viewer. Logs go to a file meanwhile.
func (a *app) runTUI(ctx context.Context, code string) error {
	logPath := a.cfg.Log.File
	if logPath == "" {
		logPath = filepath.Join(a.dataDir, config.LogFileName)
	}
	logPath = util.ExpandHome(logPath)
	f, err := util.OpenLogFile(filepath.Dir(logPath), filepath.Base(logPath))
	if err != nil {
		return err
	}
	defer f.Close()
	a.logger = util.NewLogger(f, a.logLevel())

	st, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	u := a.cfg.Unlock
	model := tui.NewMainModel(ctx, st, tui.Options{
		InitialCode:  code,
		AllowForce:   u.AllowForce,
		FetchTimeout: u.FetchTimeout,
		DecryptDelay: u.DecryptDelay,
		TickInterval: u.TickInterval,
		Throttle:     unlock.NewThrottle(u.MaxAttempts, u.PassphraseCooldown),
		Logger:       a.logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

func viewCmd(a *app) *cobra.Command {
	var wait, passStdin bool
	cmd := &cobra.Command{
		Use:   "view <code>",
		Short: "Print a capsule without the interactive viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd.Context(), args[0], wait, passStdin)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "count down until a locked capsule opens")
	cmd.Flags().BoolVar(&passStdin, "passphrase-stdin", false, "read the passphrase from standard input")
	return cmd
}

func (a *app) runView(ctx context.Context, code string, wait, passStdin bool) error {
	st, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	// Signals that the session moved; the state itself is read back.
	changed := make(chan struct{}, 1)
	u := a.cfg.Unlock
	sess := unlock.NewSession(st,
		unlock.WithLogger(a.logger),
		unlock.WithFetchTimeout(u.FetchTimeout),
		unlock.WithDecryptDelay(u.DecryptDelay),
		unlock.WithTickInterval(u.TickInterval),
		unlock.WithThrottle(unlock.NewThrottle(u.MaxAttempts, u.PassphraseCooldown)),
		unlock.WithHaptic(func() { fmt.Fprint(a.errOut, "\a") }),
		unlock.WithObserver(func(unlock.State) {
			select {
			case changed <- struct{}{}:
			default:
			}
		}),
	)
	defer sess.Close()

	s := sess.Start(ctx, code)
	if s.Phase == unlock.Locked {
		a.printLocked(s)
		if !wait || !s.OpenDateValid {
			return errLocked
		}
		for s.Phase == unlock.Locked {
			select {
			case <-ctx.Done():
				fmt.Fprintln(a.out)
				return ctx.Err()
			case <-changed:
				s = sess.State()
				if s.Phase == unlock.Locked && s.HasRemaining {
					fmt.Fprintf(a.out, "\ropens in %s ", formatCountdown(s.Remaining))
				}
			}
		}
		fmt.Fprintln(a.out)
	}

	tries := 1
	if !passStdin {
		tries = 3
	}
	for i := 0; i < tries && s.Phase == unlock.PasswordRequired; i++ {
		pass, err := a.readPassphrase(passStdin, "Passphrase: ")
		if err != nil {
			return err
		}
		done := a.startSpinner("verifying passphrase")
		s = sess.SubmitPassphrase(ctx, pass)
		done("")
		if s.Phase == unlock.PasswordRequired {
			fmt.Fprintln(a.errOut, s.LastError)
		}
	}

	switch s.Phase {
	case unlock.Unlocked:
		a.printUnlocked(s)
		return nil
	case unlock.PasswordRequired:
		return &userError{msg: s.LastError, err: s.Err}
	case unlock.Failed:
		return &userError{msg: s.LastError, err: s.Err}
	}
	return fmt.Errorf("unexpected state %s", s.Phase)
}

func formatCountdown(c timegate.Countdown) string {
	return fmt.Sprintf("%dd %02dh %02dm %02ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}

func (a *app) printHeader(r *models.CapsuleRecord) {
	to := "yourself"
	if !r.AddressedToSelf() {
		names := make([]string, 0, len(r.Recipients))
		for _, rc := range r.Recipients {
			names = append(names, rc.Name)
		}
		to = strings.Join(names, ", ")
	}
	fmt.Fprintf(a.out, "From %s to %s\n", r.From, to)
}

func (a *app) printLocked(s unlock.State) {
	a.printHeader(s.Record)
	if !s.OpenDateValid {
		fmt.Fprintf(a.out, "%s (%q)\n", s.LastError, s.Record.OpenDate)
		return
	}
	fmt.Fprintf(a.out, "Locked until %s (%s)\n",
		s.OpenAt.Local().Format(time.RFC1123), humanize.RelTime(s.OpenAt, time.Now(), "ago", "from now"))
	fmt.Fprintf(a.out, "opens in %s\n", formatCountdown(s.Remaining))
}

func (a *app) printUnlocked(s unlock.State) {
	a.printHeader(s.Record)
	if s.Force {
		fmt.Fprintln(a.out, "(opened early)")
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, s.Revealed)
	fmt.Fprintln(a.out)
	if del, ok := s.Record.DeletionDate(config.RetentionPeriod); ok {
		fmt.Fprintf(a.out, "written %s, deleted after %s\n",
			s.Record.CreatedAt.Local().Format(time.DateOnly), del.Local().Format(time.DateOnly))
	}
}

func createCmd(a *app) *cobra.Command {
	var (
		d           capsule.Draft
		to          []string
		messageFile string
		askPass     bool
		passStdin   bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Seal a new capsule and print its code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, raw := range to {
				r, err := capsule.ParseRecipient(raw)
				if err != nil {
					return err
				}
				d.Recipients = append(d.Recipients, r)
			}
			if messageFile != "" {
				body, err := a.readMessageFile(messageFile)
				if err != nil {
					return err
				}
				d.Message = body
			}
			switch {
			case passStdin:
				pass, err := a.readLine()
				if err != nil {
					return err
				}
				d.Passphrase = pass
			case askPass:
				pass, err := a.confirmPassphrase()
				if err != nil {
					return err
				}
				d.Passphrase = pass
			}
			return a.runCreate(cmd.Context(), d)
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.From, "from", "", "sender name")
	f.StringVar(&d.SenderPhone, "phone", "", "sender phone number")
	f.StringArrayVar(&to, "to", nil, "recipient as name:phone (repeatable, omit to address yourself)")
	f.StringVar(&d.Message, "message", "", "message text")
	f.StringVar(&messageFile, "message-file", "", "read the message from a file (- for stdin)")
	f.StringVar(&d.OpenDate, "open-at", "", "open date, RFC 3339 or local YYYY-MM-DDTHH:MM")
	f.BoolVar(&askPass, "passphrase-prompt", false, "seal the message with a passphrase")
	f.BoolVar(&passStdin, "passphrase-stdin", false, "read the sealing passphrase from standard input")
	cmd.MarkFlagsMutuallyExclusive("message", "message-file")
	cmd.MarkFlagsMutuallyExclusive("passphrase-prompt", "passphrase-stdin")
	return cmd
}

func (a *app) readMessageFile(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(a.in)
		return string(data), err
	}
	data, err := os.ReadFile(util.ExpandHome(path))
	if err != nil {
		return "", fmt.Errorf("read message: %w", err)
	}
	return string(data), nil
}

func (a *app) confirmPassphrase() (string, error) {
	pass, err := a.promptForKey("Passphrase: ")
	if err != nil {
		return "", err
	}
	again, err := a.promptForKey("Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	if pass != again {
		return "", fmt.Errorf("passphrases do not match")
	}
	return pass, nil
}

func (a *app) runCreate(ctx context.Context, d capsule.Draft) error {
	params, err := capsule.Seal(d)
	if err != nil {
		return err
	}
	st, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	cctx, cancel := context.WithTimeout(ctx, a.cfg.Store.Timeout)
	defer cancel()
	done := a.startSpinner("storing capsule")
	id, err := st.Create(cctx, params)
	if err != nil {
		done("")
		return fmt.Errorf("store capsule: %w", err)
	}
	done("")
	a.logger.Info("capsule stored", "code", id, "sealed", params.UsePasswordKey)

	openAt, _ := timegate.ParseOpenDate(params.OpenDate)
	fmt.Fprintf(a.out, "Capsule sealed until %s\n", openAt.Local().Format(time.RFC1123))
	fmt.Fprintf(a.out, "Code: %s\n", id)
	fmt.Fprintf(a.out, "Open it with: capsule open %s\n", id)
	return nil
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count waiting and delivered capsules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, release, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer release()
			sctx, cancel := context.WithTimeout(ctx, a.cfg.Unlock.FetchTimeout)
			defer cancel()
			s, err := st.GetStats(sctx)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			fmt.Fprintf(a.out, "%s waiting · %s delivered (%s total)\n",
				humanize.Comma(int64(s.Waiting)), humanize.Comma(int64(s.Sent)), humanize.Comma(int64(s.Total())))
			return nil
		},
	}
}

func purgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete capsules a year past their open date (sqlite store)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Store.Kind != config.StoreSQLite {
				return fmt.Errorf("purge needs the sqlite store, not %q", a.cfg.Store.Kind)
			}
			ctx := cmd.Context()
			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer func() { util.LogError(a.logger, "close database", db.Close()) }()

			if last, ok := db.LastPurge(ctx); ok {
				a.logger.Info("previous purge", "at", humanize.Time(last))
			}
			n, err := db.PurgeExpired(ctx, time.Now(), config.RetentionPeriod)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Purged %s %s\n", humanize.Comma(n), plural(n, "capsule", "capsules"))
			return nil
		},
	}
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
