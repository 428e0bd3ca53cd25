package cuedb_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/infra/cuedb"
)

func openTestDB(t *testing.T) *cuedb.DB {
	t.Helper()
	db := cuedb.NewDB(filepath.Join(t.TempDir(), "nested", "cues.db"))
	if err := db.Open(); err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDBDefaultPath(t *testing.T) {
	db := cuedb.NewDB("")
	if db.Path() != cuedb.DefaultDBPath {
		t.Errorf("path = %q, want %q", db.Path(), cuedb.DefaultDBPath)
	}
}

func TestDBOpenCreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "cues.db")
	db := cuedb.NewDB(dbPath)

	if err := db.Open(); err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist after Open()")
	}

	version, err := db.SchemaVersion()
	if err != nil || version != cuedb.CurrentSchemaVersion {
		t.Errorf("SchemaVersion() = %q, %v", version, err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Failed to close database: %v", err)
	}
	if err := db.Open(); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	db.Close()
}

func TestSaveAndLoadProject(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	want := cue.Project{
		Path:      "/music/mix.flac",
		Performer: "Resident",
		MixTitle:  "Warehouse",
		Cues: []cue.CuePoint{
			{ID: "b", Time: 10, Name: "Second at ten"},
			{ID: "a", Time: 10, Name: "First at ten", Artist: "X", Title: "Y", Locked: true},
			{ID: "c", Time: 65.3, Name: "Cue 3", Performer: "Guest", Confirmed: true},
		},
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := db.SaveProject(ctx, want); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	got, err := db.LoadProject(ctx, want.Path)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}
	got.UpdatedAt = want.UpdatedAt
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadProject() = %+v\nwant %+v", got, want)
	}
}

func TestSaveProjectReplacesCues(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p := cue.Project{Path: "mix.mp3", Cues: []cue.CuePoint{{ID: "a", Time: 1, Name: "A"}, {ID: "b", Time: 2, Name: "B"}}}
	if err := db.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	p.Cues = p.Cues[1:]
	p.Performer = "Later"
	if err := db.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	got, err := db.LoadProject(ctx, "mix.mp3")
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if len(got.Cues) != 1 || got.Cues[0].ID != "b" || got.Performer != "Later" {
		t.Errorf("got %+v", got)
	}
}

func TestLoadMissingProject(t *testing.T) {
	db := openTestDB(t)

	_, err := db.LoadProject(context.Background(), "/nope.mp3")
	if !errors.Is(err, cuedb.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if !errors.Is(err, cue.ErrProjectNotFound) {
		t.Error("ErrNotFound should match cue.ErrProjectNotFound")
	}
}

func TestDeleteAndListProjects(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	projects := []cue.Project{
		{Path: "old.mp3", Cues: []cue.CuePoint{{ID: "1", Name: "A"}}, UpdatedAt: base},
		{Path: "new.mp3", Cues: []cue.CuePoint{{ID: "1", Name: "A"}, {ID: "2", Name: "B", Time: 3}}, UpdatedAt: base.Add(time.Hour)},
		{Path: "empty.mp3", UpdatedAt: base.Add(30 * time.Minute)},
	}
	for _, p := range projects {
		if err := db.SaveProject(ctx, p); err != nil {
			t.Fatalf("SaveProject(%s): %v", p.Path, err)
		}
	}

	list, err := db.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	var paths []string
	var counts []int
	for _, s := range list {
		paths = append(paths, s.Path)
		counts = append(counts, s.CueCount)
	}
	if !reflect.DeepEqual(paths, []string{"new.mp3", "empty.mp3", "old.mp3"}) {
		t.Errorf("paths = %v", paths)
	}
	if !reflect.DeepEqual(counts, []int{2, 0, 1}) {
		t.Errorf("counts = %v", counts)
	}

	if err := db.DeleteProject(ctx, "new.mp3"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := db.LoadProject(ctx, "new.mp3"); !errors.Is(err, cuedb.ErrNotFound) {
		t.Errorf("deleted project still loads: %v", err)
	}
	if err := db.DeleteProject(ctx, "new.mp3"); !errors.Is(err, cuedb.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestClosedDB(t *testing.T) {
	db := cuedb.NewDB(filepath.Join(t.TempDir(), "cues.db"))
	ctx := context.Background()

	if err := db.SaveProject(ctx, cue.Project{Path: "x"}); !errors.Is(err, cuedb.ErrClosed) {
		t.Errorf("SaveProject: expected ErrClosed, got %v", err)
	}
	if _, err := db.LoadProject(ctx, "x"); !errors.Is(err, cuedb.ErrClosed) {
		t.Errorf("LoadProject: expected ErrClosed, got %v", err)
	}
	if _, err := db.ListProjects(ctx); !errors.Is(err, cuedb.ErrClosed) {
		t.Errorf("ListProjects: expected ErrClosed, got %v", err)
	}
}
