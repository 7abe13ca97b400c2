package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HershyOrg/dtrader/builtin"
	"github.com/HershyOrg/dtrader/config"
	"github.com/HershyOrg/dtrader/eval"
	"github.com/HershyOrg/dtrader/logger"
	"github.com/HershyOrg/dtrader/plugin"
	"github.com/HershyOrg/dtrader/scope"
	"github.com/HershyOrg/dtrader/server"
	"github.com/HershyOrg/dtrader/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

const version = "0.70"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stdout)
		return 1
	}
	switch args[0] {
	case "chart":
		return cmdChart(args[1:], stdout, stderr)
	case "run":
		return cmdRun(args[1:], stdout, stderr)
	case "repl":
		return cmdRepl(args[1:], stdout, stderr)
	case "serve":
		return cmdServe(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "dtrader: unknown command %q\n", args[0])
		usage(stdout)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `dtrader version %s
-------------------------------------------

usage:

dtrader chart [--chart-name name] config-file.dt
  evaluates the file and prints 'name' (defaults to first chart found)

dtrader run [--dump] [--store] config-file.dt
  evaluates the file, optionally dumping the scope and saving the run

dtrader repl [config-file.dt]
  interactive session, optionally preloaded from a file

dtrader serve [--addr :8091] [config-file.dt]
  websocket session server

global flags: --properties path  --plugins dir  --log-level level  --log-file path
`, version)
}

// env is everything a command needs to evaluate scripts.
type env struct {
	cfg   *config.Config
	log   *logger.Logger
	root  *scope.Scope
	table *builtin.Table
	eval  *eval.Evaluator
}

func setup(flags *config.Flags, stdout, stderr io.Writer) (*env, error) {
	cfg, err := flags.Resolve(os.Getenv)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger("DTrader", stderr)
	log.SetDefaultLogType("DTRADER")

	root := scope.NewRoot()
	n := cfg.ApplyProperties(root)
	log.Debug("properties loaded", map[string]interface{}{
		"path":  cfg.PropertiesPath,
		"count": n,
	})

	table := builtin.Default(stdout)
	if cfg.PluginDir != "" {
		if _, err := plugin.Install(cfg.PluginDir, table, log.With("Plugin")); err != nil {
			log.Close()
			return nil, fmt.Errorf("load plugins: %w", err)
		}
	}

	ev := eval.New(root, table)
	ev.SetLogger(log.With("Evaluator"))
	return &env{cfg: cfg, log: log, root: root, table: table, eval: ev}, nil
}

func (e *env) evalFile(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	_, err = e.eval.EvalSource(string(src))
	return string(src), err
}

func cmdChart(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := config.Bind(fs)
	chartName := fs.String("chart-name", "", "chart to print (defaults to the first one)")
	if err := fs.Parse(args); err != nil {
		usage(stdout)
		return 1
	}
	switch {
	case fs.NArg() == 0:
		fmt.Fprintln(stderr, "dtrader: missing file")
		usage(stdout)
		return 1
	case fs.NArg() > 1:
		fmt.Fprintln(stderr, "dtrader: too many arguments")
		usage(stdout)
		return 1
	}

	e, err := setup(flags, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "dtrader:", err)
		return 1
	}
	defer e.log.Close()

	if _, err := e.evalFile(fs.Arg(0)); err != nil {
		fmt.Fprintln(stderr, "dtrader:", err)
		return 1
	}
	c, ok := e.root.Chart(*chartName)
	if !ok {
		if *chartName == "" {
			fmt.Fprintf(stderr, "dtrader: no chart defined in %s\n", fs.Arg(0))
		} else {
			fmt.Fprintf(stderr, "dtrader: chart %q not found in %s\n", *chartName, fs.Arg(0))
		}
		return 1
	}
	fmt.Fprintln(stdout, c)
	return 0
}

func cmdRun(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := config.Bind(fs)
	dump := fs.Bool("dump", false, "print the root scope after evaluation")
	save := fs.Bool("store", false, "save the run (Postgres when DATABASE_URL is set)")
	if err := fs.Parse(args); err != nil {
		usage(stdout)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "dtrader: run expects exactly one file")
		usage(stdout)
		return 1
	}

	e, err := setup(flags, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "dtrader:", err)
		return 1
	}
	defer e.log.Close()

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "dtrader:", err)
		return 1
	}
	rec := store.NewRun(string(src))
	e.log.SetRunID(rec.ID.String())
	_, evalErr := e.eval.EvalSource(string(src))
	rec.Finish(e.root, evalErr)

	if *dump {
		fmt.Fprint(stdout, e.root.Dump())
	}
	if *save {
		if err := e.saveRun(*rec); err != nil {
			fmt.Fprintln(stderr, "dtrader:", err)
			return 1
		}
		fmt.Fprintf(stdout, "run %s saved\n", rec.ID)
	}
	if evalErr != nil {
		fmt.Fprintln(stderr, "dtrader:", evalErr)
		return 1
	}
	return 0
}

func (e *env) saveRun(rec store.Run) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	if e.cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, e.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			return err
		}
		repo = store.NewPGRepository(pool)
	} else {
		e.log.Warn("DATABASE_URL not set, run kept in memory only", nil)
		repo = store.NewMemoryRepository()
	}
	if err := repo.SaveRun(ctx, rec); err != nil {
		return err
	}
	e.log.Info("run saved", map[string]interface{}{
		"symbols": len(rec.Symbols),
		"charts":  len(rec.Charts),
		"error":   rec.Err,
	})
	return nil
}

func cmdServe(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := config.Bind(fs)
	addr := fs.String("addr", "", "listen address (default "+config.DefaultAddr+")")
	if err := fs.Parse(args); err != nil {
		usage(stdout)
		return 1
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "dtrader: too many arguments")
		usage(stdout)
		return 1
	}

	e, err := setup(flags, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "dtrader:", err)
		return 1
	}
	defer e.log.Close()
	if *addr == "" {
		*addr = e.cfg.Addr
	}
	if fs.NArg() == 1 {
		if _, err := e.evalFile(fs.Arg(0)); err != nil {
			fmt.Fprintln(stderr, "dtrader:", err)
			return 1
		}
	}

	srv := server.New(e.eval, e.log.With("SessionServer"))
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start(*addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errc:
		if err != nil {
			e.log.Error("server error", map[string]interface{}{"error": err.Error()})
			return 1
		}
		return 0
	case <-sigChan:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		e.log.Error("server shutdown failed", map[string]interface{}{"error": err.Error()})
		return 1
	}
	e.log.Info("session server stopped", nil)
	return 0
}
