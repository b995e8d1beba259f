package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clive/internal/config"
	"clive/internal/deps"
	"clive/internal/media/ffmpeg"
	"clive/internal/pipeline"
	"clive/internal/runlog"
	"clive/internal/services/modelfetch"
	"clive/internal/services/whispercli"
	"clive/internal/stagecache"
)

// errPartialSuccess marks runs where some clips failed to materialize. The
// process exits with a distinct code so scripts can tell "everything
// worked" from "check the log for the clips that failed".
var errPartialSuccess = errors.New("partial success")

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		keywords  []string
		lead      float64
		trail     float64
		mergeGap  float64
		tracks    []int
		model     string
		output    string
		noCleanup bool
	)

	cmd := &cobra.Command{
		Use:   "run <input-file>",
		Short: "Extract keyword clips from a video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg, keywords, lead, trail, mergeGap, tracks, model, output)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.RequireKeywords(); err != nil {
				return err
			}
			if missing := deps.MissingRequired(deps.CheckBinaries(deps.Requirements(cfg))); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %v (run 'clive status' for details)", missing)
			}

			input, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			store, err := runlog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			cache, err := stagecache.NewManager(cfg.Paths.CacheDir, logger)
			if err != nil {
				return err
			}

			ffmpegSvc := ffmpeg.NewService(cfg.FFmpegBinary(), logger)
			pl, err := pipeline.New(cfg, logger, store, cache,
				pipeline.WithModelProvider(modelfetch.NewFetcher(logger,
					modelfetch.WithRetryPolicy(cfg.Workflow.DownloadRetries,
						time.Duration(cfg.Workflow.DownloadBackoffSec)*time.Second))),
				pipeline.WithExtractor(ffmpegSvc),
				pipeline.WithCutter(ffmpegSvc),
				pipeline.WithTranscriber(whispercli.NewService(cfg.Model.Binary, logger)))
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := pl.Execute(runCtx, input, pipeline.RunOptions{NoCleanup: noCleanup})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, produced := range result.Outputs {
				fmt.Fprintln(out, produced)
			}
			if result.Clips == 0 {
				return fmt.Errorf("no keyword matches produced any clips")
			}
			if len(result.Failures) > 0 {
				for _, failure := range result.Failures {
					fmt.Fprintf(out, "failed: %s: %v\n", failure.Name, failure.Err)
				}
				return fmt.Errorf("%w: %d of %d clips produced",
					errPartialSuccess, len(result.Outputs), result.Clips)
			}
			fmt.Fprintf(out, "%d clip(s) written to %s\n", len(result.Outputs), cfg.Paths.OutputDir)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "Keyword to clip on (repeatable; overrides config keywords)")
	cmd.Flags().Float64Var(&lead, "lead", 0, "Default seconds of context before each match")
	cmd.Flags().Float64Var(&trail, "trail", 0, "Default seconds of context after each match")
	cmd.Flags().Float64Var(&mergeGap, "merge-gap", 0, "Merge clips separated by at most this many seconds")
	cmd.Flags().IntSliceVarP(&tracks, "tracks", "t", nil, "Audio tracks to transcribe (1-based)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Whisper model name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory for clips")
	cmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, "Keep cached audio, transcripts, and manifests after the run")

	return cmd
}

// applyRunFlags layers explicit command line values over the loaded
// configuration. Only flags the user actually set are applied.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, keywords []string, lead, trail, mergeGap float64, tracks []int, model, output string) {
	if cmd.Flags().Changed("keyword") {
		cfg.Keywords = cfg.Keywords[:0]
		for _, keyword := range keywords {
			cfg.Keywords = append(cfg.Keywords, config.Keyword{Keyword: keyword})
		}
	}
	if cmd.Flags().Changed("lead") {
		cfg.Clips.LeadSeconds = lead
	}
	if cmd.Flags().Changed("trail") {
		cfg.Clips.TrailSeconds = trail
	}
	if cmd.Flags().Changed("merge-gap") {
		cfg.Clips.MergeGapSeconds = mergeGap
	}
	if cmd.Flags().Changed("tracks") {
		cfg.Tracks.AudioTracks = tracks
	}
	if cmd.Flags().Changed("model") {
		cfg.Model.Name = model
	}
	if cmd.Flags().Changed("output") {
		if expanded, err := config.ExpandPath(output); err == nil {
			cfg.Paths.OutputDir = expanded
		} else {
			cfg.Paths.OutputDir = filepath.Clean(output)
		}
	}
}
