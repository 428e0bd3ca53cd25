package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// settleDelay lets an editor finish a save before the file is re-read.
const settleDelay = 200 * time.Millisecond

var (
	watchSource sourceOptions
	watchFormat string
	watchOutput string
)

var watchCmd = &cobra.Command{
	Use:   "watch <input>",
	Short: "Re-export a cue sheet every time it is saved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchOutput == "" {
			return errors.New("--output is required")
		}
		input := args[0]
		export := func() error {
			out, err := convertFile(input, watchFormat, watchSource)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), watchOutput, out, input)
		}
		if err := export(); err != nil {
			log.Warn().Err(err).Msg("Initial export failed")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		log.Info().Str("input", input).Str("output", watchOutput).Msg("Watching for changes")
		return watchFile(ctx, input, settleDelay, export)
	},
}

func init() {
	watchSource.register(watchCmd)
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "cue", "Output format: "+formatIDs())
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Output file or directory")
	rootCmd.AddCommand(watchCmd)
}

// watchFile calls onChange once writes to path have settled for delay. The
// parent directory is watched so editors that replace the file on save are
// still seen. Errors from onChange are logged and watching continues.
func watchFile(ctx context.Context, path string, delay time.Duration, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			log.Debug().Str("op", event.Op.String()).Str("file", name).Msg("Change detected")
			timer.Reset(delay)

		case <-timer.C:
			if err := onChange(); err != nil {
				log.Error().Err(err).Msg("Export after change failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		}
	}
}
