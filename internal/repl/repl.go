// Package repl is an interactive shell for querying a loaded graph.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/cyberia-to/publish-quartz/internal/service"
)

const prompt = "quartz> "

var commands = []string{
	"query", "resolve", "transform", "tags", "docs", "backlinks",
	"reload", "help", "exit", "quit", "q",
}

// REPL is the interactive command loop.
type REPL struct {
	svc     *service.Service
	out     io.Writer
	history string
}

// New returns a REPL writing to out. history is the file command history is
// kept in; empty disables persistence.
func New(svc *service.Service, out io.Writer, history string) *REPL {
	return &REPL{svc: svc, out: out, history: history}
}

// DefaultHistoryFile returns ~/.publish_quartz_history, or "" without a
// home directory.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".publish_quartz_history")
}

// Run reads commands until quit, EOF or Ctrl-C.
func (r *REPL) Run(ctx context.Context) error {
	ln := liner.NewLiner()
	defer ln.Close()

	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completer)

	if r.history != "" {
		if f, err := os.Open(r.history); err == nil {
			_, _ = ln.ReadHistory(f)
			f.Close()
		}
	}
	defer r.saveHistory(ln)

	fmt.Fprintln(r.out, "publish-quartz query shell. Type 'help' for commands.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nBye!")
				return nil
			}
			return fmt.Errorf("repl: reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if r.Eval(ctx, line) {
			fmt.Fprintln(r.out, "Bye!")
			return nil
		}
	}
}

func (r *REPL) saveHistory(ln *liner.State) {
	if r.history == "" {
		return
	}
	if f, err := os.Create(r.history); err == nil {
		_, _ = ln.WriteHistory(f)
		f.Close()
	}
}

// Eval runs one command line and reports whether the shell should exit.
// A line starting with "(" or "{{" is evaluated as a query.
func (r *REPL) Eval(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "(") || strings.HasPrefix(line, "{{") || strings.HasPrefix(line, "[[") {
		r.query(line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "exit", "quit", "q":
		return true
	case "help", "?":
		r.printHelp()
	case "query":
		r.query(arg)
	case "resolve":
		r.resolve(arg)
	case "transform":
		r.transform(arg)
	case "tags":
		r.tags()
	case "docs", "ls":
		r.docs(arg)
	case "backlinks":
		r.backlinks(arg)
	case "reload":
		if err := r.svc.Reload(ctx); err != nil {
			r.errorf(err)
			break
		}
		fmt.Fprintln(r.out, "reloaded")
	default:
		fmt.Fprintf(r.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (r *REPL) errorf(err error) {
	fmt.Fprintf(r.out, "error: %v\n", err)
}

func (r *REPL) query(text string) {
	res, err := r.svc.Query(text, nil)
	if err != nil {
		r.errorf(err)
		return
	}
	fmt.Fprintln(r.out, res.Markdown)
	fmt.Fprintf(r.out, "(%d matches, %s)\n", len(res.Matches), res.Layout)
}

func (r *REPL) resolve(link string) {
	res, err := r.svc.Resolve(strings.TrimSuffix(strings.TrimPrefix(link, "[["), "]]"))
	if err != nil {
		r.errorf(err)
		return
	}
	if !res.Found {
		fmt.Fprintf(r.out, "%s: no page\n", res.Link)
		return
	}
	fmt.Fprintf(r.out, "%s -> %s\n", res.Link, res.Target)
}

func (r *REPL) transform(text string) {
	// Literal \n separates lines on a single prompt line.
	out, err := r.svc.Transform(strings.ReplaceAll(text, `\n`, "\n"))
	if err != nil {
		r.errorf(err)
		return
	}
	fmt.Fprintln(r.out, out)
}

func (r *REPL) tags() {
	tags, err := r.svc.Tags()
	if err != nil {
		r.errorf(err)
		return
	}
	for _, t := range tags {
		fmt.Fprintln(r.out, t)
	}
}

func (r *REPL) docs(tag string) {
	docs, err := r.svc.Documents(tag)
	if err != nil {
		r.errorf(err)
		return
	}
	for _, d := range docs {
		fmt.Fprintln(r.out, d.Name)
	}
	fmt.Fprintf(r.out, "(%d documents)\n", len(docs))
}

func (r *REPL) backlinks(name string) {
	links, err := r.svc.Backlinks(name)
	if err != nil {
		r.errorf(err)
		return
	}
	if len(links) == 0 {
		fmt.Fprintln(r.out, "no backlinks found")
		return
	}
	for _, l := range links {
		fmt.Fprintln(r.out, l)
	}
}

func completer(line string) []string {
	var out []string
	lower := strings.ToLower(line)
	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}
	return out
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  (query ...) / {{query ...}}    Evaluate a query")
	fmt.Fprintln(r.out, "  query <expr>                   Evaluate a query")
	fmt.Fprintln(r.out, "  resolve <link>                 Show the page a link publishes as")
	fmt.Fprintln(r.out, "  transform <text>               Transform Logseq markdown (\\n for newlines)")
	fmt.Fprintln(r.out, "  tags                           List every tag")
	fmt.Fprintln(r.out, "  docs [tag]                     List documents, optionally by tag")
	fmt.Fprintln(r.out, "  backlinks <page>               Pages linking to page in the last publish")
	fmt.Fprintln(r.out, "  reload                         Re-read the graph")
	fmt.Fprintln(r.out, "  help                           Show this help")
	fmt.Fprintln(r.out, "  exit / quit / q                Exit")
}
