package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/edumarques81/stellar-cue/internal/domain/cuesheet"
	"github.com/edumarques81/stellar-cue/internal/domain/playlist"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// sourceOptions describe how an input document becomes an export.
type sourceOptions struct {
	Audio     string  // Audio file name written into the playlist
	Performer string  // Overrides the sheet PERFORMER
	Title     string  // Overrides the sheet TITLE
	Tracklist bool    // Input is an untimed tracklist
	Duration  float64 // Mix length, required for tracklists
}

func (o *sourceOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.Audio, "audio", "", "Audio file name referenced by the playlist")
	f.StringVar(&o.Performer, "performer", "", "Default performer")
	f.StringVar(&o.Title, "title", "", "Mix title")
	f.BoolVar(&o.Tracklist, "tracklist", false, "Treat the input as an untimed tracklist")
	f.Float64Var(&o.Duration, "duration", 0, "Mix length in seconds")
}

var (
	convertSource sourceOptions
	convertFormat string
	convertOutput string
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert a cue sheet or tracklist to another playlist format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := convertFile(args[0], convertFormat, convertSource)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), convertOutput, out, args[0])
	},
}

func init() {
	convertSource.register(convertCmd)
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "cue", "Output format: "+formatIDs())
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file, or a directory to use the default name (stdout when empty)")
	rootCmd.AddCommand(convertCmd)
}

func formatIDs() string {
	ids := make([]string, len(playlist.Formats))
	for i, f := range playlist.Formats {
		ids[i] = f.ID
	}
	return strings.Join(ids, ", ")
}

// buildExport parses content into a playlist export. Skipped lines are
// returned so callers can report them.
func buildExport(content string, opts sourceOptions) (playlist.Export, []cuesheet.LineError, error) {
	if opts.Tracklist {
		tracks, err := cuesheet.ParseTracklist(content)
		if err != nil {
			return playlist.Export{}, nil, err
		}
		cues, err := cuesheet.Distribute(tracks, opts.Duration)
		if err != nil {
			return playlist.Export{}, nil, err
		}
		return playlist.Export{
			FileName:  opts.Audio,
			Performer: opts.Performer,
			MixTitle:  opts.Title,
			Cues:      cues,
		}, nil, nil
	}

	sheet, err := cuesheet.ParseString(content)
	if err != nil {
		return playlist.Export{}, nil, err
	}
	e := playlist.Export{
		FileName:  firstNonEmpty(opts.Audio, sheet.File),
		Performer: firstNonEmpty(opts.Performer, sheet.Performer),
		MixTitle:  firstNonEmpty(opts.Title, sheet.Title),
		Cues:      sheet.Cues,
	}
	return e, sheet.Skipped, nil
}

// convertFile reads the input at path and renders it in format.
func convertFile(path, format string, opts sourceOptions) (playlist.Rendered, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return playlist.Rendered{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	e, skipped, err := buildExport(string(data), opts)
	if err != nil {
		return playlist.Rendered{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, le := range skipped {
		log.Warn().Int("line", le.Line).Str("text", le.Text).Msg(le.Reason)
	}
	if e.FileName == "" {
		base := filepath.Base(path)
		e.FileName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	out, err := playlist.Render(format, e)
	if err != nil {
		return playlist.Rendered{}, err
	}
	log.Debug().Str("format", out.Format).Int("cues", len(e.Cues)).Msg("Converted")
	return out, nil
}

// writeOutput writes r to stdout, to a file, or into a directory under the
// rendered file name. It refuses to overwrite the input it was built from.
func writeOutput(stdout io.Writer, dest string, r playlist.Rendered, input string) error {
	if dest == "" || dest == "-" {
		_, err := io.WriteString(stdout, r.Content)
		return err
	}
	if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
		dest = filepath.Join(dest, r.FileName)
	}
	if sameFile(dest, input) {
		return fmt.Errorf("%w: %s", errOverwriteInput, dest)
	}
	if err := os.WriteFile(dest, []byte(r.Content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	log.Info().Str("path", dest).Str("format", r.Format).Msg("Playlist written")
	return nil
}

var errOverwriteInput = errors.New("output would overwrite the input")

func sameFile(a, b string) bool {
	if b == "" {
		return false
	}
	fa, err := os.Stat(a)
	if err != nil {
		return false
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
