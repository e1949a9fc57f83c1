// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/dailymind/dailymind-tui/internal/config"
	"github.com/dailymind/dailymind-tui/internal/identity"
	"github.com/dailymind/dailymind-tui/internal/prefs"
	"github.com/dailymind/dailymind-tui/internal/session"
	"github.com/dailymind/dailymind-tui/internal/storage"
	"github.com/dailymind/dailymind-tui/internal/util"
)

// =============================================================================
// CHAT
// =============================================================================

func newChatCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in the line REPL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// =============================================================================
// VERIFY
// =============================================================================

func newVerifyCmd(opts *globalOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check whether premium is active for your email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.IDs.Load(); err != nil {
				return err
			}
			if email != "" {
				if _, err := app.IDs.SaveEmail(email); err != nil {
					return err
				}
			}

			out, err := app.IDs.Verify(cmd.Context())
			if errors.Is(err, identity.ErrMissingIdentity) {
				return errors.New("no email saved; pass --email or run /email in chat")
			}
			if err != nil {
				return err
			}

			masked := util.MaskEmail(app.IDs.Current().Email)
			if out == identity.Confirmed {
				fmt.Fprintf(cmd.OutOrStdout(), "Premium confirmed for %s.\n", masked)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", session.NoticeNotConfirmed, masked)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "save this email before checking")
	return cmd
}

// =============================================================================
// STATUS
// =============================================================================

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show identity, quota and lock state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			// Status reads local state only; no premium check.
			scfg := sessionConfig(app.Config)
			scfg.VerifyOnStart = false
			ctrl := session.New(scfg, app.IDs, app.Client, nil, app.Logger)
			if err := ctrl.Start(cmd.Context()); err != nil {
				return err
			}
			writeStatus(cmd.OutOrStdout(), ctrl.Status(), app.Config.Service.BaseURL)
			return nil
		},
	}
}

// writeStatus prints st as aligned key/value lines.
func writeStatus(w io.Writer, st session.Status, baseURL string) {
	email := "not set"
	if st.Email != "" {
		email = util.MaskEmail(st.Email)
	}

	messages := fmt.Sprintf("%d/%d (%d remaining)", st.Count, st.Limit, st.Remaining)
	premium := "no"
	if st.Premium {
		messages = fmt.Sprintf("%d (unlimited)", st.Count)
		premium = fmt.Sprintf("yes (%s)", st.PremiumSource)
	}

	lock := st.Lock.String()
	if st.LockReason != "" {
		lock = fmt.Sprintf("%s (%s)", lock, st.LockReason)
	}

	fmt.Fprintf(w, "Email:        %s\n", email)
	fmt.Fprintf(w, "Messages:     %s\n", messages)
	fmt.Fprintf(w, "Premium:      %s\n", premium)
	fmt.Fprintf(w, "Lock:         %s\n", lock)
	fmt.Fprintf(w, "Personality:  %s\n", st.Personality)
	fmt.Fprintf(w, "Service:      %s\n", baseURL)
}

// =============================================================================
// RESET
// =============================================================================

func newResetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved email, message count and premium flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := prefs.Reset(app.Store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved email, message count and premium flag cleared.")
			return nil
		},
	}
}

// =============================================================================
// HISTORY AND EXPORT
// =============================================================================

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			metas, err := app.Archive.List()
			if search != "" {
				metas, err = app.Archive.Search(search)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), storage.FormatList(metas))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show conversations containing this text")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "delete <ref>",
			Short: "Delete an archived conversation by list number or ID",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := newApp(opts)
				if err != nil {
					return err
				}
				defer app.Close()

				conv, err := app.Archive.Resolve(args[0])
				if err != nil {
					return err
				}
				if err := app.Archive.Delete(conv.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", conv.GetTitle())
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every archived conversation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := newApp(opts)
				if err != nil {
					return err
				}
				defer app.Close()

				if err := app.Archive.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
				return nil
			},
		},
	)
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <ref>",
		Short: "Export an archived conversation as Markdown or JSON",
		Long:  "Export an archived conversation. <ref> is a number from `dailymind history`, a full ID or a unique ID prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			conv, err := app.Archive.Resolve(args[0])
			if err != nil {
				return err
			}
			data, err := storage.Export(conv, format)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := util.AtomicWriteFile(output, data, 0600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", storage.FormatMarkdown, "output format: md or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			text, err := cfg.TOML()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ColorsEnabled(out) {
				text = highlightTOML(text, GetColorProfile(out))
			}
			fmt.Fprint(out, text)
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), opts.configPath)
				return nil
			}
			if p := config.ActivePath(); p != "" {
				fmt.Fprintln(cmd.OutOrStdout(), p)
				return nil
			}
			p, err := config.ConfigPathTOML()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (not created)\n", p)
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := opts.configPath
			if p == "" {
				if err := config.EnsureConfigDir(); err != nil {
					return err
				}
				var err error
				if p, err = config.ConfigPathTOML(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(p); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", p)
			}
			if err := config.SaveTOML(config.Default(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, path, initCmd)
	return cmd
}

// highlightTOML colors TOML for the terminal. On any failure the text is
// returned unchanged.
func highlightTOML(text string, profile termenv.Profile) string {
	lexer := lexers.Get("toml")
	if lexer == nil {
		return text
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	name := "terminal256"
	switch profile {
	case termenv.TrueColor:
		name = "terminal16m"
	case termenv.ANSI:
		name = "terminal16"
	}
	formatter := formatters.Get(name)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text
	}
	return buf.String()
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dailymind %s\n", Version)
		},
	}
}
