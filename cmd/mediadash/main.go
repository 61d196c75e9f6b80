package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nhle/mediadash/internal/app"
	"github.com/nhle/mediadash/internal/logger"
	"github.com/nhle/mediadash/internal/model"
	"github.com/nhle/mediadash/internal/notification"
	"github.com/nhle/mediadash/internal/source"
	"github.com/nhle/mediadash/internal/store"
	appsync "github.com/nhle/mediadash/internal/sync"
	"github.com/nhle/mediadash/internal/theme"
)

const usage = `usage: mediadash [-config path] <command> [args]

commands:
  init-config [-force]          write the effective configuration to the config path
  watch [-interactive]          poll the spool directory and sweep archived notifications
  list [-view pending|archived|active|all]
  add -type T -title S [-message S] [-email-id S] [-docket S] [-job S] [-pm S]
  archive ID | restore ID | remove ID | complete ID
  status ID STATUS
  docket ID NUMBER [-job S]
  grab ID MEMBER [-priority]
  sweep [-window D]
  repair
  clear-dismissed
  clear-all

Only one process may change the notifications at a time. While watch is
running, add is queued through the spool directory and other changes are
refused.
`

// env is what a command runs against.
type env struct {
	cfg    *model.AppConfig
	log    *zap.Logger
	store  *notification.Store
	reg    *prometheus.Registry
	stdout io.Writer
}

type command struct {
	// writes marks commands that change the blob. They hold the store
	// lock while running; the rest open the store read-only.
	writes bool
	run    func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"watch":           {writes: true, run: watch},
	"list":            {run: list},
	"add":             {writes: true, run: add},
	"archive":         {writes: true, run: byID((*notification.Store).Archive)},
	"restore":         {writes: true, run: byID((*notification.Store).Restore)},
	"remove":          {writes: true, run: byID((*notification.Store).Remove)},
	"complete":        {writes: true, run: byID((*notification.Store).Complete)},
	"status":          {writes: true, run: status},
	"docket":          {writes: true, run: docket},
	"grab":            {writes: true, run: grab},
	"sweep":           {writes: true, run: sweep},
	"repair":          {writes: true, run: repair},
	"clear-dismissed": {writes: true, run: noArgs((*notification.Store).ClearDismissed)},
	"clear-all":       {writes: true, run: noArgs((*notification.Store).ClearAll)},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "mediadash: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("mediadash", flag.ContinueOnError)
	configPath := global.String("config", model.DefaultConfigPath(), "path to config file")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	name, rest := global.Arg(0), global.Args()[1:]

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if name == "init-config" {
		return initConfig(*configPath, cfg, rest, stdout)
	}

	cmd, ok := commands[name]
	if !ok {
		global.Usage()
		return fmt.Errorf("unknown command %q", name)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cmd.writes {
		lock, err := store.AcquireLock(store.LockPath(cfg.Storage))
		if errors.Is(err, store.ErrLocked) && name == "add" {
			return queueAdd(cfg, log, rest, stdout)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		defer lock.Release()
	}

	blobs, err := store.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer blobs.Close()

	reg := prometheus.NewRegistry()
	opts := []notification.Option{
		notification.WithKey(cfg.Storage.Key),
		notification.WithLogger(log),
		notification.WithMetrics(notification.NewMetrics(reg)),
		notification.WithExpiryWindow(cfg.Expiry.Window),
	}
	if !cmd.writes {
		opts = append(opts, notification.WithReadOnly())
	}
	s := notification.New(blobs, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Initialize(ctx)

	e := &env{cfg: cfg, log: log, store: s, reg: reg, stdout: stdout}
	if err := cmd.run(ctx, e, rest); err != nil {
		return err
	}

	if err := s.LastError(); err != nil {
		return fmt.Errorf("notifications were not saved: %w", err)
	}
	return nil
}

func initConfig(path string, cfg *model.AppConfig, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init-config", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("config %s already exists; use -force to overwrite", path)
	}
	if err := model.SaveConfig(path, cfg); err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)
	return nil
}

// watch runs the owner loop until interrupted.
func watch(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interactive := fs.Bool("interactive", false, "read keybindings from the terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log := e.cfg, e.log

	poller := appsync.NewPoller(log)
	defer poller.Stop()

	n, err := app.RegisterSources(poller, cfg.Ingest, log)
	if err != nil {
		return err
	}
	if n == 0 {
		log.Warn("no ingestion sources configured")
	}

	sweeper := appsync.NewSweeper(time.Duration(cfg.Expiry.SweepIntervalSec) * time.Second)

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	log.Info("watching for notifications",
		zap.Int("sources", n),
		zap.Duration("sweep_interval", sweeper.Interval()),
		zap.Duration("expiry_window", cfg.Expiry.Window),
		zap.Int("unread", e.store.UnreadCount()),
	)

	m := app.New(e.store, poller, sweeper, cfg.Expiry.Window, log)
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	}
	if *interactive {
		fmt.Fprintln(os.Stderr, m.Help())
	} else {
		opts = append(opts, tea.WithInput(nil))
	}

	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running watch loop: %w", err)
	}
	return nil
}

func list(_ context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	view := fs.String("view", "active", "pending, archived, active or all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var items []model.Notification
	switch *view {
	case "pending":
		items = e.store.Pending()
	case "archived":
		items = e.store.Archived()
	case "active":
		items = e.store.Active()
	case "all":
		items = e.store.All()
	default:
		return fmt.Errorf("unknown view %q", *view)
	}

	_, err := fmt.Fprint(e.stdout, theme.NotificationTable(items, e.store.UnreadCount()))
	return err
}

func parseAdd(args []string) (model.Params, error) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	typ := fs.String("type", string(model.TypeInfo), "notification type")
	title := fs.String("title", "", "title")
	message := fs.String("message", "", "message")
	emailID := fs.String("email-id", "", "email identifier used for deduplication")
	docketNumber := fs.String("docket", "", "docket number")
	job := fs.String("job", "", "job name")
	pm := fs.String("pm", "", "project manager")
	if err := fs.Parse(args); err != nil {
		return model.Params{}, err
	}

	t := model.NotificationType(strings.ToUpper(*typ))
	if !t.Valid() || t.IsReclassification() {
		return model.Params{}, fmt.Errorf("cannot add notification of type %q", *typ)
	}
	if *title == "" {
		return model.Params{}, errors.New("add needs -title")
	}

	return model.Params{
		Type:           t,
		Title:          *title,
		Message:        *message,
		EmailID:        optional(*emailID),
		DocketNumber:   optional(*docketNumber),
		JobName:        optional(*job),
		ProjectManager: optional(*pm),
	}, nil
}

func add(ctx context.Context, e *env, args []string) error {
	p, err := parseAdd(args)
	if err != nil {
		return err
	}
	n := model.NewNotification(p, time.Now())
	e.store.Add(ctx, n)
	fmt.Fprintln(e.stdout, n.ID)
	return nil
}

// queueAdd hands the notification to the process holding the store
// through its spool directory.
func queueAdd(cfg *model.AppConfig, log *zap.Logger, args []string, stdout io.Writer) error {
	p, err := parseAdd(args)
	if err != nil {
		return err
	}
	name, err := source.Enqueue(cfg.Ingest.SpoolDir, p)
	if err != nil {
		return fmt.Errorf("queueing notification: %w", err)
	}
	log.Info("store is busy; queued notification for the running watch",
		zap.String("spool", cfg.Ingest.SpoolDir),
		zap.String("file", name),
	)
	fmt.Fprintf(stdout, "queued %s\n", name)
	return nil
}

func status(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return errors.New("status needs ID and STATUS")
	}
	st := model.NotificationStatus(strings.ToUpper(args[1]))
	if !st.Valid() {
		return fmt.Errorf("unknown status %q", args[1])
	}
	e.store.UpdateStatus(ctx, args[0], st)
	return nil
}

func docket(ctx context.Context, e *env, args []string) error {
	if len(args) < 2 {
		return errors.New("docket needs ID and NUMBER")
	}
	id, number := args[0], args[1]

	fs := flag.NewFlagSet("docket", flag.ContinueOnError)
	job := fs.String("job", "", "job name")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	u := notification.FieldUpdate{DocketNumber: model.Set(number)}
	if *job != "" {
		u.JobName = model.Set(*job)
	}
	e.store.UpdateFields(ctx, id, u)
	return nil
}

func grab(ctx context.Context, e *env, args []string) error {
	if len(args) < 2 {
		return errors.New("grab needs ID and MEMBER")
	}
	fs := flag.NewFlagSet("grab", flag.ContinueOnError)
	priority := fs.Bool("priority", false, "mark as priority assist")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}
	e.store.Grab(ctx, args[0], args[1], *priority)
	return nil
}

func sweep(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	window := fs.Duration("window", 0, "expiry window (default: expiry.window from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "removed %d\n", e.store.RunExpirySweep(ctx, time.Now(), *window))
	return nil
}

func repair(ctx context.Context, e *env, _ []string) error {
	fmt.Fprintf(e.stdout, "removed %d\n", e.store.RepairDuplicates(ctx))
	return nil
}

func byID(op func(*notification.Store, context.Context, string)) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, args []string) error {
		if len(args) != 1 {
			return errors.New("exactly one ID is required")
		}
		op(e.store, ctx, args[0])
		return nil
	}
}

func noArgs(op func(*notification.Store, context.Context)) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, _ []string) error {
		op(e.store, ctx)
		return nil
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
