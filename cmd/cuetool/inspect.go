package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/edumarques81/stellar-cue/internal/domain/cuesheet"
	"github.com/edumarques81/stellar-cue/internal/domain/segment"
	"github.com/edumarques81/stellar-cue/internal/domain/tags"
	"github.com/edumarques81/stellar-cue/internal/domain/timefmt"
	"github.com/edumarques81/stellar-cue/internal/infra/tagreader"
	"github.com/spf13/cobra"
)

var (
	inspectAudio    string
	inspectDuration float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <cue file>",
	Short: "Print the cues, segment bounds and audio tags of a mix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		sheet, err := cuesheet.ParseString(string(data))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		w := cmd.OutOrStdout()
		if inspectAudio != "" {
			raw, err := tagreader.New().ReadTags(inspectAudio)
			if err != nil {
				return fmt.Errorf("failed to read tags: %w", err)
			}
			printTags(w, tags.Resolve(raw, filepath.Base(inspectAudio)))
		}
		return printSheet(w, sheet, inspectDuration)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectAudio, "audio", "", "Audio file to read tags from")
	inspectCmd.Flags().Float64Var(&inspectDuration, "duration", 0, "Mix length in seconds, closes the last segment")
	rootCmd.AddCommand(inspectCmd)
}

func printTags(w io.Writer, m tags.Metadata) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range m.Entries() {
		fmt.Fprintf(tw, "%s:\t%s\n", e.Label, e.Value)
	}
	if m.HasCover {
		fmt.Fprintf(tw, "Cover:\t%s\n", m.Cover.MIMEType)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

// printSheet lists every cue with its segment. Cues sharing a timestamp
// with an earlier one are zero-width and marked as such.
func printSheet(w io.Writer, sheet *cuesheet.Sheet, duration float64) error {
	fmt.Fprintf(w, "Format:    %s\n", sheet.Format)
	if sheet.Performer != "" {
		fmt.Fprintf(w, "Performer: %s\n", sheet.Performer)
	}
	if sheet.Title != "" {
		fmt.Fprintf(w, "Title:     %s\n", sheet.Title)
	}
	if sheet.File != "" {
		fmt.Fprintf(w, "File:      %s\n", sheet.File)
	}
	fmt.Fprintf(w, "Cues:      %d\n\n", len(sheet.Cues))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTART\tEND\tLENGTH\tNAME")
	for i, c := range sheet.Cues {
		end, length := "--", "--"
		if i > 0 && sheet.Cues[i-1].Time == c.Time {
			end, length = timefmt.Clock(c.Time), "shared"
		} else if b := segment.At(sheet.Cues, i, duration); b.End > b.Start {
			end, length = timefmt.Clock(b.End), timefmt.Short(b.Length())
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, timefmt.Clock(c.Time), end, length, c.DisplayName())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(sheet.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped %d line(s):\n", len(sheet.Skipped))
		for _, le := range sheet.Skipped {
			fmt.Fprintf(w, "  %s: %q\n", le.Error(), le.Text)
		}
	}
	return nil
}
