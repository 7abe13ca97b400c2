package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/HershyOrg/dtrader/config"
	"github.com/HershyOrg/dtrader/eval"
	"github.com/HershyOrg/dtrader/lexer"
	"github.com/HershyOrg/dtrader/value"
	"github.com/peterh/liner"
)

const (
	historyFile = ".dtrader_history"
	promptMain  = "dt> "
	promptCont  = "... "
)

const replHelp = `REPL commands:
  :dump    Print the scope
  :funcs   List callable functions
  :q       Exit the REPL
`

func cmdRepl(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := config.Bind(fs)
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
	if fs.NArg() == 1 {
		if _, err := e.evalFile(fs.Arg(0)); err != nil {
			fmt.Fprintln(stderr, "dtrader:", err)
			return 1
		}
	}

	fmt.Fprintf(stdout, "dtrader version %s\nCtrl+D exits. Type :q to exit, :help for commands.\n", version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	for {
		src, ok := readStatement(ln)
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch trimmed {
			case ":q", ":quit":
				return 0
			case ":dump":
				fmt.Fprint(stdout, e.root.Dump())
			case ":funcs":
				fmt.Fprintln(stdout, strings.Join(e.table.Names(), " "))
			case ":help":
				fmt.Fprint(stdout, replHelp)
			default:
				fmt.Fprintln(stdout, "unknown command. Type :help for commands.")
			}
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		evalAndPrint(e.eval, src, stdout, stderr)
	}
}

// readStatement prompts until the input ends in a terminator, is a REPL
// command, or no longer lexes.
func readStatement(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return line, true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if needsMore(b.String()) {
			continue
		}
		return b.String(), true
	}
}

// needsMore reports whether src lexes but has not reached a terminator.
func needsMore(src string) bool {
	if strings.TrimSpace(src) == "" || lexer.Complete(src) {
		return false
	}
	tokens, err := lexer.Lex(src)
	return err == nil && len(tokens) > 0
}

func evalAndPrint(ev *eval.Evaluator, src string, stdout, stderr io.Writer) {
	results, err := ev.EvalSource(src)
	for _, r := range results {
		fmt.Fprintln(stdout, value.Describe(r.Value))
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
	}
}
