// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/dailymind/dailymind-tui/internal/identity"
	"github.com/dailymind/dailymind-tui/internal/logging"
	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/session"
	"github.com/dailymind/dailymind-tui/internal/ui/styles"
)

// =============================================================================
// LINE SURFACE
// =============================================================================

// lineSurface renders controller updates as plain lines. User messages are
// not echoed; the terminal already shows what was typed.
type lineSurface struct {
	mu    sync.Mutex
	w     io.Writer
	theme *styles.Theme
}

func newLineSurface(w io.Writer, theme *styles.Theme) *lineSurface {
	return &lineSurface{w: w, theme: theme}
}

func (s *lineSurface) EntryAdded(e model.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case e.Kind == model.KindUpgrade:
		fmt.Fprintf(s.w, "%s %s\n", s.theme.Upgrade.Render(e.Text),
			s.theme.Hint.Render("(/upgrade opens the payment page, /verify once paid)"))
	case e.Kind == model.KindNotice:
		style := s.theme.Notice
		if e.Text == session.NoticeLocked {
			style = s.theme.LockNotice
		}
		fmt.Fprintln(s.w, style.Render(e.Text))
	case e.Role == model.RoleAssistant:
		fmt.Fprint(s.w, s.theme.AssistantLabel.Render(e.Role.DisplayName()+":")+" "+e.Text)
		if e.Final {
			fmt.Fprintln(s.w)
		}
	}
}

func (s *lineSurface) EntryAppended(_ string, fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.w, fragment)
}

func (s *lineSurface) EntryFinalized(e model.Entry) {
	if e.Role != model.RoleAssistant {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w)
}

func (s *lineSurface) RequestEmail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, s.theme.Hint.Render("Set your email with /email <address> to start chatting."))
}

func (s *lineSurface) ScrollToLatest()      {}
func (s *lineSurface) SetInputEnabled(bool) {}
func (s *lineSurface) ClearInput()          {}

// =============================================================================
// LINE READERS
// =============================================================================

// lineReader is the REPL's input source. Read returns io.EOF when the user
// is done.
type lineReader interface {
	Read(prompt string) (string, error)
	Close() error
}

// newLineReader returns a liner-backed reader on a terminal and a plain
// scanner otherwise.
func newLineReader(in io.Reader, out io.Writer, historyPath string) lineReader {
	if IsTTY(in, out) {
		return newLinerReader(historyPath)
	}
	return &scanReader{sc: bufio.NewScanner(in)}
}

type linerReader struct {
	state       *liner.State
	historyPath string
}

func newLinerReader(historyPath string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completeSlash)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
	}
	return &linerReader{state: state, historyPath: historyPath}
}

func (r *linerReader) Read(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}
	return line, nil
}

func (r *linerReader) Close() error {
	if r.historyPath != "" {
		if f, err := os.OpenFile(r.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.state.WriteHistory(f)
			f.Close()
		}
	}
	return r.state.Close()
}

// scanReader reads piped input. It prints no prompt.
type scanReader struct {
	sc *bufio.Scanner
}

func (r *scanReader) Read(string) (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

var slashCommands = map[string]string{
	"/email":       "/email <address>   save the email used for your account",
	"/verify":      "/verify            check whether your payment went through",
	"/upgrade":     "/upgrade           open the upgrade page",
	"/personality": "/personality [name] show or pick the companion personality",
	"/status":      "/status            show email, messages used and premium state",
	"/help":        "/help              show this help",
	"/quit":        "/quit              leave the chat",
}

func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for name := range slashCommands {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

type repl struct {
	app   *App
	out   io.Writer
	theme *styles.Theme
}

// runREPL runs the line chat on in/out until EOF or /quit.
func runREPL(ctx context.Context, opts *globalOptions, in io.Reader, out io.Writer) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()
	ctx = logging.WithLogger(ctx, app.Logger)

	theme := styles.NewThemeFor(out, app.Config.UI.Theme)
	app.Ctrl.SetSurface(newLineSurface(out, theme))

	reader := newLineReader(in, out, app.historyFile())
	defer reader.Close()

	fmt.Fprintln(out, theme.HeaderBrand.Render("DailyMind")+"  your daily mental wellness companion")
	fmt.Fprintln(out, theme.Hint.Render("Type a message, /help for commands, /quit to leave."))

	if err := app.Ctrl.Start(ctx); err != nil {
		return err
	}

	r := &repl{app: app, out: out, theme: theme}
	err = r.loop(ctx, reader)
	app.archiveTranscript()
	return err
}

func (r *repl) loop(ctx context.Context, reader lineReader) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := reader.Read("you> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "exit"), strings.EqualFold(line, "quit"):
			return nil
		case strings.HasPrefix(line, "/"):
			if !r.command(ctx, line) {
				return nil
			}
		default:
			r.send(ctx, line)
		}
	}
}

func (r *repl) send(ctx context.Context, text string) {
	before := r.app.Ctrl.Transcript().Len()
	outcome := r.app.Ctrl.Send(ctx, text)
	if outcome == session.OutcomeLocked && r.app.Ctrl.Transcript().Len() == before {
		fmt.Fprintln(r.out, r.theme.LockNotice.Render("Free limit reached. Use /upgrade, then /verify once paid."))
	}
}

// command handles one slash command. It returns false to end the REPL.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	ctrl := r.app.Ctrl

	switch strings.ToLower(name) {
	case "/quit", "/exit", "/q":
		return false

	case "/help", "/?":
		names := make([]string, 0, len(slashCommands))
		for n := range slashCommands {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintln(r.out, "  "+slashCommands[n])
		}

	case "/email":
		if arg == "" {
			fmt.Fprintln(r.out, "Usage: /email <address>")
			break
		}
		if _, err := ctrl.SaveEmail(arg); err != nil {
			if errors.Is(err, identity.ErrInvalidEmail) {
				fmt.Fprintln(r.out, r.theme.ErrorNotice.Render("Please enter a valid email"))
			} else {
				fmt.Fprintln(r.out, r.theme.ErrorNotice.Render("Could not save email: "+err.Error()))
			}
		}

	case "/verify":
		if _, err := ctrl.VerifyPremium(ctx); err != nil {
			r.app.Logger.Debug("verify from repl", "error", err)
		}

	case "/upgrade":
		url := ctrl.UpgradeURL()
		if err := openURL(url); err != nil {
			fmt.Fprintf(r.out, "Open this link to upgrade: %s\n", url)
		} else {
			fmt.Fprintf(r.out, "Opened %s. Run /verify once you have paid.\n", url)
		}

	case "/personality":
		if arg == "" {
			current := ctrl.Personality()
			for _, p := range ctrl.Personalities() {
				mark := "  "
				if p == current {
					mark = "* "
				}
				fmt.Fprintln(r.out, mark+p)
			}
			break
		}
		if err := ctrl.SetPersonality(arg); err != nil {
			fmt.Fprintln(r.out, r.theme.ErrorNotice.Render(err.Error()))
			break
		}
		fmt.Fprintf(r.out, "Personality: %s\n", ctrl.Personality())

	case "/status":
		writeStatus(r.out, ctrl.Status(), r.app.Config.Service.BaseURL)

	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help for the list.\n", name)
	}
	return true
}
