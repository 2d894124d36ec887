// tilecentric generates, steps and inspects persisted Game States.
//
// Usage:
//
//	tilecentric <command> [args]
//
// Commands: gen, step, show, log, children, diff, schema
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"github.com/wI2L/jsondiff"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tilecentric/tilecentric/internal/config"
	"github.com/tilecentric/tilecentric/internal/core/event"
	"github.com/tilecentric/tilecentric/internal/data"
	"github.com/tilecentric/tilecentric/internal/lineage"
	"github.com/tilecentric/tilecentric/internal/persist"
	"github.com/tilecentric/tilecentric/internal/render"
	"github.com/tilecentric/tilecentric/internal/world"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var ue *usageError
		if errors.As(err, &ue) && ue.showUsage {
			printUsage(os.Stderr)
		}
		os.Exit(exitCode(err))
	}
}

// ── Errors and usage ──────────────────────────────────────────────

// usageError reports bad command-line input.
type usageError struct {
	msg       string
	showUsage bool
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// exitCode maps usage and not-found errors to 2, anything else to 1.
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue),
		errors.Is(err, persist.ErrStateNotFound),
		errors.Is(err, lineage.ErrNoStates):
		return 2
	}
	return 1
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  tilecentric gen [size]        write a fresh root state")
	fmt.Fprintln(w, "  tilecentric step [path]       step the given (or latest) state")
	fmt.Fprintln(w, "  tilecentric show [path]       render the given (or latest) state")
	fmt.Fprintln(w, "  tilecentric log [path]        print the ancestry of a state")
	fmt.Fprintln(w, "  tilecentric children [path]   list the states stepped from a state")
	fmt.Fprintln(w, "  tilecentric diff [path]       print the JSON patch from the parent")
	fmt.Fprintln(w, "  tilecentric schema [-out f]   print or write the snapshot JSON Schema")
	fmt.Fprintf(w, "\nconfig: $%s (default %s)\n", config.EnvPath, config.DefaultPath)
}

// ── Dispatch ──────────────────────────────────────────────────────

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"gen":      cmdGen,
	"step":     cmdStep,
	"show":     cmdShow,
	"log":      cmdLog,
	"children": cmdChildren,
	"diff":     cmdDiff,
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return &usageError{msg: "missing command", showUsage: true}
	}
	name, rest := args[0], args[1:]
	switch name {
	case "-h", "--help", "help":
		printUsage(stdout)
		return nil
	case "schema":
		return cmdSchema(rest, stdout)
	}

	fn, ok := commands[name]
	if !ok {
		return &usageError{msg: "unknown command: " + name, showUsage: true}
	}
	a := &app{stdout: stdout, cfgPath: config.Path()}
	defer a.close()
	return fn(ctx, a, rest)
}

// ── Application wiring ────────────────────────────────────────────

// app holds everything a command needs once its arguments are valid.
type app struct {
	stdout  io.Writer
	cfgPath string

	cfg    *config.Config
	log    *zap.Logger
	engine *world.Engine
	store  *persist.Store
	db     *persist.DB
	repo   *persist.LineageRepo // nil when the mirror is disabled
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log

	a.engine = world.NewEngine(world.WithLogger(log))
	event.Subscribe(a.engine.Bus(), func(ev event.EntityMoved) {
		log.Debug("entity moved",
			zap.Uint64("entity", uint64(ev.EntityID)),
			zap.Ints("from", []int{ev.From.X, ev.From.Y}),
			zap.Ints("to", []int{ev.To.X, ev.To.Y}),
			zap.Int("dir", int(ev.Dir)),
		)
	})
	a.store = persist.NewStore(cfg.StorePath, a.engine.Allocator(), log)

	if !cfg.Database.Enabled() {
		return nil
	}
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := persist.NewDB(dbCtx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	a.db = db
	version, err := db.Migrate(dbCtx)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Debug("lineage mirror ready", zap.Int64("schema_version", version))
	a.repo = persist.NewLineageRepo(db)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// save persists s and mirrors it when the database is configured.
func (a *app) save(ctx context.Context, s *world.State) error {
	path, err := a.store.Save(s)
	if err != nil {
		return err
	}
	if a.repo != nil {
		row, err := persist.RowFor(s, path)
		if err != nil {
			return err
		}
		if err := a.repo.Record(ctx, row); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

// resolve returns the explicit path when given, else the store's latest state.
func (a *app) resolve(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return a.store.Latest()
}

func atMostOnePath(name string, args []string) error {
	if len(args) > 1 {
		return usagef("%s expects at most one input path", name)
	}
	return nil
}

// ── Commands ──────────────────────────────────────────────────────

func cmdGen(ctx context.Context, a *app, args []string) error {
	size, sizeSet := 0, false
	switch {
	case len(args) == 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return usagef("size must be an int")
		}
		size, sizeSet = n, true
	case len(args) > 1:
		return usagef("too many args for gen")
	}
	if err := a.open(ctx); err != nil {
		return err
	}

	sc := data.DefaultScenario()
	if a.cfg.Scenario.Path != "" {
		loaded, err := data.LoadScenario(a.cfg.Scenario.Path)
		if err != nil {
			return err
		}
		sc = loaded
	}
	if !sizeSet {
		size = sc.Size
		if size == 0 {
			size = a.cfg.Scenario.Size
		}
	}

	s, err := a.engine.Initial(size, sc)
	if err != nil {
		return err
	}
	return a.save(ctx, s)
}

func cmdStep(ctx context.Context, a *app, args []string) error {
	if err := atMostOnePath("step", args); err != nil {
		return err
	}
	if err := a.open(ctx); err != nil {
		return err
	}
	path, err := a.resolve(args)
	if err != nil {
		return err
	}
	s, err := a.store.Load(path)
	if err != nil {
		return err
	}
	next, err := a.engine.Step(s)
	if err != nil {
		return err
	}
	return a.save(ctx, next)
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	if err := atMostOnePath("show", args); err != nil {
		return err
	}
	if err := a.open(ctx); err != nil {
		return err
	}
	path, err := a.resolve(args)
	if err != nil {
		return err
	}
	s, err := a.store.Load(path)
	if err != nil {
		return err
	}
	out, err := render.Map(s, colorEnabled(a.stdout))
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintln(a.stdout, out)
	}
	return nil
}

func cmdLog(ctx context.Context, a *app, args []string) error {
	if err := atMostOnePath("log", args); err != nil {
		return err
	}
	if err := a.open(ctx); err != nil {
		return err
	}
	path, err := a.resolve(args)
	if err != nil {
		return err
	}
	s, err := a.store.Load(path)
	if err != nil {
		return err
	}
	info := s.Info()

	if a.repo != nil {
		rows, err := a.repo.Ancestry(ctx, info.ID)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			for _, r := range rows {
				fmt.Fprintf(a.stdout, "%s\tentities=%d\tfingerprint=%016x\n", r.ID, r.Entities, r.Fingerprint)
			}
			return nil
		}
		a.log.Warn("state not mirrored, falling back to store scan", zap.String("id", info.ID.String()))
	}

	x, err := a.store.Index()
	if err != nil {
		return err
	}
	x.Add(info.ID, info.ParentID)
	for _, id := range x.Ancestry(info.ID) {
		fmt.Fprintln(a.stdout, id)
	}
	return nil
}

func cmdChildren(ctx context.Context, a *app, args []string) error {
	if err := atMostOnePath("children", args); err != nil {
		return err
	}
	if err := a.open(ctx); err != nil {
		return err
	}
	path, err := a.resolve(args)
	if err != nil {
		return err
	}
	s, err := a.store.Load(path)
	if err != nil {
		return err
	}
	id := s.Info().ID

	if a.repo != nil {
		rows, err := a.repo.Children(ctx, id)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			for _, r := range rows {
				fmt.Fprintln(a.stdout, r.ID)
			}
			return nil
		}
	}

	x, err := a.store.Index()
	if err != nil {
		return err
	}
	for _, child := range x.Children(id) {
		fmt.Fprintln(a.stdout, child)
	}
	return nil
}

func cmdDiff(ctx context.Context, a *app, args []string) error {
	if err := atMostOnePath("diff", args); err != nil {
		return err
	}
	if err := a.open(ctx); err != nil {
		return err
	}
	path, err := a.resolve(args)
	if err != nil {
		return err
	}
	child, err := a.store.Load(path)
	if err != nil {
		return err
	}
	info := child.Info()
	if info.IsRoot() {
		return fmt.Errorf("state %s has no parent", info.ID)
	}
	parent, err := a.store.LoadID(info.ParentID)
	if err != nil {
		return err
	}

	patch, err := persist.Diff(parent, child)
	if err != nil {
		return err
	}
	if patch == nil {
		patch = jsondiff.Patch{}
	}
	out, err := json.MarshalIndent(patch, "", "  ")
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	fmt.Fprintln(a.stdout, string(out))
	return nil
}

func cmdSchema(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("out", "", "write the schema to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return usagef("schema: %v", err)
	}
	if fs.NArg() > 0 {
		return usagef("too many args for schema")
	}

	if *out != "" {
		if err := persist.WriteSchema(*out); err != nil {
			return err
		}
		fmt.Fprintln(stdout, *out)
		return nil
	}
	body, err := persist.SchemaJSON()
	if err != nil {
		return err
	}
	_, err = stdout.Write(body)
	return err
}

// ── Helpers ───────────────────────────────────────────────────────

// colorEnabled reports whether w is a terminal.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
