package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/edumarques81/stellar-cue/internal/config"
	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/playlist"
	"github.com/edumarques81/stellar-cue/internal/infra/cuedb"
	"github.com/spf13/cobra"
)

var (
	projectsDB     string
	projectsFormat string
	projectsOutput string
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage cue projects saved by the player",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved projects, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *cuedb.DB) error {
			list, err := db.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			return printProjects(cmd.OutOrStdout(), list)
		})
	},
}

var projectsExportCmd = &cobra.Command{
	Use:   "export <audio path>",
	Short: "Export the cues saved for an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *cuedb.DB) error {
			out, err := exportProject(cmd.Context(), db, args[0], projectsFormat)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), projectsOutput, out, "")
		})
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <audio path>",
	Short: "Delete the cues saved for an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *cuedb.DB) error {
			if err := db.DeleteProject(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	projectsCmd.PersistentFlags().StringVar(&projectsDB, "db", config.FromEnv().DBPath, "Cue database path")
	projectsExportCmd.Flags().StringVarP(&projectsFormat, "format", "f", "cue", "Output format: "+formatIDs())
	projectsExportCmd.Flags().StringVarP(&projectsOutput, "output", "o", "", "Output file or directory (stdout when empty)")

	projectsCmd.AddCommand(projectsListCmd, projectsExportCmd, projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}

func withDB(fn func(db *cuedb.DB) error) error {
	db := cuedb.NewDB(projectsDB)
	if err := db.Open(); err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

type projectLoader interface {
	LoadProject(ctx context.Context, path string) (cue.Project, error)
}

// exportProject renders the project stored for path.
func exportProject(ctx context.Context, db projectLoader, path, format string) (playlist.Rendered, error) {
	p, err := db.LoadProject(ctx, path)
	if err != nil {
		return playlist.Rendered{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if len(p.Cues) == 0 {
		return playlist.Rendered{}, fmt.Errorf("project %s has no cues", path)
	}
	return playlist.Render(format, playlist.Export{
		FileName:  filepath.Base(p.Path),
		Performer: p.Performer,
		MixTitle:  p.MixTitle,
		Cues:      p.Cues,
	})
}

func printProjects(w io.Writer, list []cuedb.ProjectSummary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No saved projects")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UPDATED\tCUES\tPERFORMER\tPATH")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", humanize.Time(p.UpdatedAt), p.CueCount, p.Performer, p.Path)
	}
	return tw.Flush()
}
