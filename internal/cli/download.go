// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/datahugger-go/datahugger/internal/tui"
	"github.com/datahugger-go/datahugger/pkg/datahugger"
	"github.com/datahugger-go/datahugger/pkg/doi"
)

func newDownloadCmd(ctx context.Context, ro *RootOpts) *cobra.Command {
	var (
		output           string
		concurrency      int
		crawlConcurrency int
		retries          int
		verifyOnSize     bool
	)

	cmd := &cobra.Command{
		Use:   "download [URL|DOI]",
		Short: "Download a dataset's files from a repository landing page or DOI",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return applySettingsDefaults(cmd, ro, &downloadDefaults{
				output: &output, concurrency: &concurrency, crawlConcurrency: &crawlConcurrency,
				retries: &retries, verifyOnSize: &verifyOnSize,
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			applyTokenOverrides(ro)
			logger := newLogger(ro)

			ds, err := resolveTarget(ctx, args[0])
			if err != nil {
				return err
			}

			var progress func(datahugger.ProgressEvent)
			if ro.JSONOut {
				progress = jsonProgress(os.Stdout)
			} else if ro.Quiet {
				progress = cliProgress()
			} else {
				ui := tui.NewDownloadRenderer(ds.RootURL())
				defer ui.Close()
				progress = ui.Handler()
			}

			ds = ds.WithSettings(datahugger.Settings{
				Concurrency:       crawlConcurrency,
				Retries:           retries,
				Logger:            logger,
				Progress:          progress,
				VerifyOnSizeMatch: verifyOnSize,
			})

			return ds.DownloadWithValidation(ctx, output, concurrency)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "datahugger-downloads", "Destination directory")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Maximum number of files downloading at once")
	cmd.Flags().IntVar(&crawlConcurrency, "crawl-concurrency", 8, "Maximum number of in-flight directory listings")
	cmd.Flags().IntVar(&retries, "retries", 3, "Max retry attempts per HTTP request")
	cmd.Flags().BoolVar(&verifyOnSize, "verify-on-size", false, "Recompute the checksum even when a local file's size already matches")

	return cmd
}

func newCrawlCmd(ctx context.Context, ro *RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [URL|DOI]",
		Short: "List a dataset's files without downloading them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyTokenOverrides(ro)

			ds, err := resolveTarget(ctx, args[0])
			if err != nil {
				return err
			}

			files := ds.CrawlFiles(ctx)
			defer files.Close()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			count := 0
			for fe, err := range files.All() {
				if err != nil {
					return err
				}
				if ro.JSONOut {
					if err := enc.Encode(fe); err != nil {
						return err
					}
				} else {
					fmt.Printf("%s\t%d\t%s\n", fe.Path, sizeOr(fe.Size), fe.DownloadURL)
				}
				count++
			}
			if !ro.JSONOut {
				fmt.Printf("%d files\n", count)
			}
			return nil
		},
	}
	return cmd
}

func sizeOr(sz *int64) int64 {
	if sz == nil {
		return -1
	}
	return *sz
}

// resolveTarget accepts either a full landing-page URL or a bare DOI. A bare
// DOI is resolved through pkg/doi first; a URL goes straight to the backend
// registry, which follows a doi.org redirect itself when needed.
func resolveTarget(ctx context.Context, target string) (*datahugger.Dataset, error) {
	client := datahugger.NewClient()

	if !strings.Contains(target, "://") {
		resolver := doi.New(30 * time.Second)
		resolved, err := resolver.Resolve(ctx, target, false)
		if err != nil {
			return nil, fmt.Errorf("resolve doi %q: %w", target, err)
		}
		target = resolved
	}

	return datahugger.Resolve(ctx, client, target)
}

func newLogger(ro *RootOpts) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(ro.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if ro.Verbose {
		level = slog.LevelDebug
	}
	if ro.Quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

type downloadDefaults struct {
	output           *string
	concurrency      *int
	crawlConcurrency *int
	retries          *int
	verifyOnSize     *bool
}

// applySettingsDefaults loads a JSON or YAML config file (explicit --config,
// falling back to ~/.config/datahugger.{json,yaml,yml}) and applies any
// value the user did not already set via flag.
func applySettingsDefaults(cmd *cobra.Command, ro *RootOpts, dst *downloadDefaults) error {
	path := ro.Config
	if path == "" {
		home, _ := os.UserHomeDir()
		for _, candidate := range []string{"datahugger.json", "datahugger.yaml", "datahugger.yml"} {
			p := filepath.Join(home, ".config", candidate)
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cfg map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return fmt.Errorf("invalid YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return fmt.Errorf("invalid JSON config file: %w", err)
		}
	}

	setStr := func(flagName string, set func(string)) {
		if cmd.Flags().Changed(flagName) {
			return
		}
		if v, ok := cfg[flagName]; ok && v != nil {
			set(fmt.Sprint(v))
		}
	}
	setInt := func(flagName string, set func(int)) {
		if cmd.Flags().Changed(flagName) {
			return
		}
		if v, ok := cfg[flagName]; ok && v != nil {
			var x int
			fmt.Sscan(fmt.Sprint(v), &x)
			set(x)
		}
	}
	setBool := func(flagName string, set func(bool)) {
		if cmd.Flags().Changed(flagName) {
			return
		}
		if v, ok := cfg[flagName]; ok && v != nil {
			if b, ok := v.(bool); ok {
				set(b)
			}
		}
	}

	setStr("output", func(v string) { *dst.output = v })
	setInt("concurrency", func(v int) { *dst.concurrency = v })
	setInt("crawl-concurrency", func(v int) { *dst.crawlConcurrency = v })
	setInt("retries", func(v int) { *dst.retries = v })
	setBool("verify-on-size", func(v bool) { *dst.verifyOnSize = v })

	if !cmd.Flags().Changed("github-token") && os.Getenv("GITHUB_TOKEN") == "" {
		if v, ok := cfg["github-token"]; ok && v != nil {
			ro.GitHubToken = fmt.Sprint(v)
		}
	}
	if !cmd.Flags().Changed("dryad-api-key") && os.Getenv("DRYAD_API_KEY") == "" {
		if v, ok := cfg["dryad-api-key"]; ok && v != nil {
			ro.DryadAPIKey = fmt.Sprint(v)
		}
	}
	if !cmd.Flags().Changed("hf-token") && os.Getenv("HF_TOKEN") == "" {
		if v, ok := cfg["hf-token"]; ok && v != nil {
			ro.HFToken = fmt.Sprint(v)
		}
	}

	return nil
}

// cliProgress returns a simple text-based progress handler.
func cliProgress() func(datahugger.ProgressEvent) {
	return func(ev datahugger.ProgressEvent) {
		switch ev.Event {
		case "retry":
			fmt.Printf("retry %s: %s\n", ev.Path, ev.Message)
		case "file_start":
			fmt.Printf("downloading: %s (%d bytes)\n", ev.Path, ev.Total)
		case "file_done":
			if strings.HasPrefix(ev.Message, "skip") {
				fmt.Printf("skip: %s (%s)\n", ev.Path, ev.Message)
			} else {
				fmt.Printf("done: %s\n", ev.Path)
			}
		case "error":
			fmt.Fprintf(os.Stderr, "error: %s\n", ev.Message)
		case "done":
			fmt.Println("done")
		}
	}
}

// jsonProgress returns a JSON-lines progress handler.
func jsonProgress(w io.Writer) func(datahugger.ProgressEvent) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	var mu sync.Mutex
	return func(ev datahugger.ProgressEvent) {
		mu.Lock()
		_ = enc.Encode(ev)
		mu.Unlock()
	}
}
