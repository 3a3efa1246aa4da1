package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/victorlut/cheathub/internal/apperror"
	"github.com/victorlut/cheathub/internal/client"
	"github.com/victorlut/cheathub/internal/favorite"
	"github.com/victorlut/cheathub/internal/session"
)

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	var opts client.ListOptions
	fs.IntVar(&opts.Limit, "limit", 0, "page size")
	fs.IntVar(&opts.Offset, "offset", 0, "snippets to skip")
	fs.StringVar(&opts.Language, "language", "", "only this language")
	fs.StringVar(&opts.Tag, "tag", "", "only snippets with this tag")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	snippets, err := a.backend.List(ctx, opts)
	if err != nil {
		return err
	}
	if len(snippets) == 0 {
		fmt.Fprintln(a.out, a.st.muted.Render("no snippets"))
		return nil
	}
	for _, sn := range snippets {
		fmt.Fprintln(a.out, a.st.snippetLine(sn, a.cfg.Username))
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := oneID(a.flagSet("show"), args)
	if err != nil {
		return err
	}

	sess := a.newSession()
	if err := sess.Enter(ctx, id); err != nil {
		return err
	}
	fmt.Fprint(a.out, a.st.snippet(*sess.Snapshot().Basis, a.cfg.Username))
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	var df draftFlags
	df.register(fs)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: add takes no arguments", ErrUsage)
	}

	sess := a.newSession()
	if err := sess.Enter(ctx, session.NewID); err != nil {
		return err
	}
	if _, err := df.apply(fs, sess, a.in); err != nil {
		return err
	}
	if err := sess.Submit(ctx); err != nil {
		return err
	}

	saved := sess.Snapshot().Basis
	fmt.Fprintln(a.out, a.st.ok.Render("created "+saved.ID))
	fmt.Fprint(a.out, a.st.snippet(*saved, a.cfg.Username))
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := a.flagSet("edit")
	var df draftFlags
	df.register(fs)
	id, err := oneID(fs, args)
	if err != nil {
		return err
	}

	sess := a.newSession()
	if err := sess.Enter(ctx, id); err != nil {
		return err
	}
	changed, err := df.apply(fs, sess, a.in)
	if err != nil {
		return err
	}
	if changed == 0 {
		return fmt.Errorf("%w: edit needs at least one field flag", ErrUsage)
	}
	if err := sess.Submit(ctx); err != nil {
		return err
	}

	saved := sess.Snapshot().Basis
	fmt.Fprintln(a.out, a.st.ok.Render("updated "+saved.ID))
	fmt.Fprint(a.out, a.st.snippet(*saved, a.cfg.Username))
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := a.flagSet("delete")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	id, err := oneID(fs, args)
	if err != nil {
		return err
	}

	sess := a.newSession()
	if err := sess.Enter(ctx, id); err != nil {
		return err
	}

	confirmed := *yes
	if !confirmed {
		title := sess.Snapshot().Basis.Title
		answer, err := a.prompt(fmt.Sprintf("delete %q? [y/N] ", title))
		if err != nil {
			return err
		}
		confirmed = strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
	}
	if confirmed {
		if err := sess.ConfirmDelete(); err != nil {
			return err
		}
	}

	deleted, err := sess.Delete(ctx)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(a.out, a.st.muted.Render("kept "+id))
		return nil
	}
	fmt.Fprintln(a.out, a.st.ok.Render("deleted "+id))
	return nil
}

func (a *app) fave(ctx context.Context, args []string) error {
	id, err := oneID(a.flagSet("fave"), args)
	if err != nil {
		return err
	}
	if !favorite.Offered(a.cfg.Username) {
		return apperror.Unauthorized("log in to favorite snippets")
	}

	sess := a.newSession()
	if err := sess.Enter(ctx, id); err != nil {
		return err
	}

	fc := favorite.New(a.backend, *sess.Snapshot().Basis, a.cfg.Username, a.logger)
	res, err := fc.Toggle(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.st.favorite(res.State))
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	return a.authenticate(ctx, "login", args, a.backend.Login)
}

func (a *app) register(ctx context.Context, args []string) error {
	return a.authenticate(ctx, "register", args, a.backend.Register)
}

func (a *app) authenticate(
	ctx context.Context,
	name string,
	args []string,
	call func(ctx context.Context, username, password string) (*client.Credentials, error),
) error {
	fs := a.flagSet(name)
	username := fs.String("username", a.cfg.Username, "account name")
	password := fs.String("password", "", "password (prompted when omitted)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" {
		return fmt.Errorf("%w: %s needs -username", ErrUsage, name)
	}

	pass := *password
	if pass == "" {
		var err error
		if pass, err = a.prompt("password: "); err != nil {
			return err
		}
	}

	creds, err := call(ctx, strings.TrimSpace(*username), pass)
	if err != nil {
		return err
	}

	a.cfg.Username = creds.User.Username
	a.cfg.Token = creds.Token
	if err := a.cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.st.ok.Render("logged in as "+creds.User.Username))
	return nil
}

func (a *app) logout(_ context.Context, args []string) error {
	if _, err := parseArgs(a.flagSet("logout"), args); err != nil {
		return err
	}
	a.cfg.Username = ""
	a.cfg.Token = ""
	if err := a.cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.st.ok.Render("logged out"))
	return nil
}

// draftFlags are the field flags shared by add and edit. Only flags given
// on the command line are applied, so edit leaves the rest of the loaded
// draft alone.
type draftFlags struct {
	title       string
	value       string
	file        string
	description string
	language    string
	tags        string
	source      string
	private     bool
}

func (d *draftFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.title, "title", "", "title")
	fs.StringVar(&d.value, "value", "", "code body")
	fs.StringVar(&d.file, "file", "", "read the code body from a file (- for stdin)")
	fs.StringVar(&d.description, "description", "", "description")
	fs.StringVar(&d.language, "language", "", "language, e.g. python")
	fs.StringVar(&d.tags, "tags", "", `comma separated tags, e.g. "sort, algo"`)
	fs.StringVar(&d.source, "source", "", "where the snippet comes from (URL)")
	fs.BoolVar(&d.private, "private", false, "visible only to you")
}

// apply pushes every flag that was set into sess and returns how many.
func (d *draftFlags) apply(fs *flag.FlagSet, sess *session.Controller, stdin io.Reader) (int, error) {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["value"] && set["file"] {
		return 0, fmt.Errorf("%w: -value and -file are mutually exclusive", ErrUsage)
	}
	if set["file"] {
		body, err := readBody(d.file, stdin)
		if err != nil {
			return 0, err
		}
		d.value = body
		set["value"] = true
	}

	setters := []struct {
		flag string
		set  func() error
	}{
		{"title", func() error { return sess.SetTitle(d.title) }},
		{"value", func() error { return sess.SetValue(d.value) }},
		{"description", func() error { return sess.SetDescription(d.description) }},
		{"language", func() error { return sess.SetLanguage(d.language) }},
		{"tags", func() error { return sess.SetTags(d.tags) }},
		{"source", func() error { return sess.SetSource(d.source) }},
		{"private", func() error { return sess.SetPrivate(d.private) }},
	}

	changed := 0
	for _, s := range setters {
		if !set[s.flag] {
			continue
		}
		if err := s.set(); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

func readBody(path string, stdin io.Reader) (string, error) {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(stdin)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: no such file %s", ErrUsage, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(body), nil
}
