// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// NewRootCmd builds the dailymind command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "dailymind",
		Short:         "DailyMind, your daily mental wellness companion",
		Long:          "DailyMind is a terminal chat client for the DailyMind companion service.\nRun without a subcommand to start chatting.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if IsTTY(cmd.InOrStdin(), cmd.OutOrStdout()) {
				return runTUI(cmd.Context(), opts)
			}
			return runREPL(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default ~/.dailymind/config.toml)")
	pf.StringVar(&opts.baseURL, "base-url", "", "service base URL")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.prefsBackend, "prefs-backend", "", "preference store: file, sqlite, memory")

	root.AddCommand(
		newChatCmd(opts),
		newVerifyCmd(opts),
		newStatusCmd(opts),
		newResetCmd(opts),
		newHistoryCmd(opts),
		newExportCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
