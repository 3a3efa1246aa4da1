// Package cli implements the cheathub command line client. Every command
// drives a session.Controller or favorite.Controller against the API, the
// same way an interactive front end would.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/client"
	"github.com/victorlut/cheathub/internal/config"
	"github.com/victorlut/cheathub/internal/favorite"
	"github.com/victorlut/cheathub/internal/model"
	"github.com/victorlut/cheathub/internal/session"
)

// ErrUsage marks errors caused by bad arguments rather than by the API.
var ErrUsage = errors.New("usage")

// Backend is everything the commands need from the API.
type Backend interface {
	session.Repository
	favorite.Repository
	List(ctx context.Context, opts client.ListOptions) ([]model.Snippet, error)
	Register(ctx context.Context, username, password string) (*client.Credentials, error)
	Login(ctx context.Context, username, password string) (*client.Credentials, error)
}

var _ Backend = (*client.Client)(nil)

// Options configures one invocation.
type Options struct {
	Args   []string // without the program name
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewBackend builds the API client from the loaded config. Nil means
	// the HTTP client in internal/client.
	NewBackend func(cfg config.Client, logger *slog.Logger) (Backend, error)
}

type app struct {
	cfg     config.Client
	backend Backend
	logger  *slog.Logger
	in      *bufio.Reader
	out     io.Writer
	st      styles
}

type command struct {
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"list":     {"list snippets [-limit n] [-offset n] [-language l] [-tag t]", (*app).list},
	"show":     {"show one snippet: show <id>", (*app).show},
	"add":      {"create a snippet: add -title t -value v|-file f -description d -language l [-tags a,b]", (*app).add},
	"edit":     {"change fields of a snippet: edit <id> [-title t] [-value v] ...", (*app).edit},
	"delete":   {"delete a snippet after confirming: delete <id> [-yes]", (*app).remove},
	"fave":     {"toggle a snippet in your favorites: fave <id>", (*app).fave},
	"login":    {"log in and store the token: login -username u [-password p]", (*app).login},
	"register": {"create an account and log in: register -username u [-password p]", (*app).register},
	"logout":   {"forget the stored token", (*app).logout},
}

// Run parses opts.Args and executes one command. Failures are reported on
// Stderr before being returned.
func Run(ctx context.Context, opts Options) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	fs := flag.NewFlagSet("cheathub", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	configPath := fs.String("config", "", "client config path (default ~/.config/cheathub/config.toml)")
	verbose := fs.Bool("v", false, "log requests and state changes to stderr")
	fs.Usage = func() { usage(opts.Stderr, fs) }

	if err := fs.Parse(opts.Args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(opts.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		return report(opts.Stderr, fmt.Errorf("load config: %w", err))
	}

	newBackend := opts.NewBackend
	if newBackend == nil {
		newBackend = httpBackend
	}
	backend, err := newBackend(cfg, logger)
	if err != nil {
		return report(opts.Stderr, err)
	}

	a := &app{
		cfg:     cfg,
		backend: backend,
		logger:  logger,
		in:      bufio.NewReader(opts.Stdin),
		out:     opts.Stdout,
		st:      newStyles(opts.Stdout),
	}
	if err := cmd.run(a, ctx, fs.Args()[1:]); err != nil {
		return report(opts.Stderr, err)
	}
	return nil
}

func httpBackend(cfg config.Client, logger *slog.Logger) (Backend, error) {
	return client.New(client.Options{
		BaseURL: cfg.APIURL,
		Tokens:  client.StaticToken(cfg.Token),
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
}

func report(w io.Writer, err error) error {
	fmt.Fprintln(w, newStyles(w).failure(apperror.Message(err)))
	return err
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: cheathub [-config path] [-v] <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "global flags:")
	fs.PrintDefaults()
}

// parseArgs parses flags that may appear before or after positional
// arguments, e.g. "edit abc -title x" as well as "edit -title x abc".
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// oneID parses args and requires exactly one positional snippet id.
func oneID(fs *flag.FlagSet, args []string) (string, error) {
	positional, err := parseArgs(fs, args)
	if err != nil {
		return "", err
	}
	if len(positional) != 1 || strings.TrimSpace(positional[0]) == "" {
		return "", fmt.Errorf("%w: %s needs exactly one snippet id", ErrUsage, fs.Name())
	}
	return positional[0], nil
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// newSession returns a controller whose transitions are logged at debug.
func (a *app) newSession() *session.Controller {
	sess := session.New(a.backend, a.logger)
	sess.Subscribe(func(s session.Snapshot) {
		a.logger.Debug("session",
			slog.String("mode", s.Mode.String()),
			slog.String("phase", s.Phase.String()),
			slog.Bool("pending_confirmation", s.PendingConfirmation),
			slog.Bool("closed", s.Closed),
		)
	})
	return sess
}

// prompt writes question and reads one trimmed line from stdin.
func (a *app) prompt(question string) (string, error) {
	fmt.Fprint(a.out, question)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
