// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// RootOpts holds global CLI options shared by every subcommand.
type RootOpts struct {
	JSONOut     bool
	Quiet       bool
	Verbose     bool
	Config      string
	LogLevel    string
	GitHubToken string
	DryadAPIKey string
	HFToken     string
}

// Execute runs the CLI with the given version string.
func Execute(version string) error {
	_ = godotenv.Load()

	ro := &RootOpts{}
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	root := &cobra.Command{
		Use:           "datahugger",
		Short:         "Crawl and download files from research-data repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	root.PersistentFlags().BoolVar(&ro.JSONOut, "json", false, "Emit machine-readable JSON events (progress, results)")
	root.PersistentFlags().BoolVarP(&ro.Quiet, "quiet", "q", false, "Quiet mode (minimal logs)")
	root.PersistentFlags().BoolVarP(&ro.Verbose, "verbose", "v", false, "Verbose logs (debug details)")
	root.PersistentFlags().StringVar(&ro.Config, "config", "", "Path to config file (JSON or YAML)")
	root.PersistentFlags().StringVar(&ro.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&ro.GitHubToken, "github-token", "", "GitHub API token (also reads GITHUB_TOKEN env)")
	root.PersistentFlags().StringVar(&ro.DryadAPIKey, "dryad-api-key", "", "Dryad API key (also reads DRYAD_API_KEY env)")
	root.PersistentFlags().StringVar(&ro.HFToken, "hf-token", "", "HuggingFace access token (also reads HF_TOKEN env)")

	downloadCmd := newDownloadCmd(ctx, ro)
	root.AddCommand(downloadCmd)
	root.AddCommand(newCrawlCmd(ctx, ro))
	root.AddCommand(newVersionCmd(version))
	root.AddCommand(newConfigCmd())

	root.RunE = downloadCmd.RunE
	root.SetHelpCommand(&cobra.Command{Use: "help", Hidden: true})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// applyTokenOverrides exports any token flags the user set as environment
// variables, matching the env-var names each backend already reads
// (GITHUB_TOKEN, DRYAD_API_KEY, HF_TOKEN).
func applyTokenOverrides(ro *RootOpts) {
	if ro.GitHubToken != "" {
		os.Setenv("GITHUB_TOKEN", ro.GitHubToken)
	}
	if ro.DryadAPIKey != "" {
		os.Setenv("DRYAD_API_KEY", ro.DryadAPIKey)
	}
	if ro.HFToken != "" {
		os.Setenv("HF_TOKEN", ro.HFToken)
	}
}
