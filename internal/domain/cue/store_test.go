package cue_test

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func times(cues []cue.CuePoint) []float64 {
	out := make([]float64, len(cues))
	for i, c := range cues {
		out[i] = c.Time
	}
	return out
}

func TestStoreAddKeepsSortedOrder(t *testing.T) {
	store := cue.NewStoreWithIDs(sequentialIDs())

	for _, tm := range []float64{30, 10, 20, 0} {
		store.Add(cue.CuePoint{Time: tm})
	}

	got := times(store.Cues())
	want := []float64{0, 10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("times = %v, want %v", got, want)
		}
	}
}

func TestStoreAddAssignsDefaults(t *testing.T) {
	store := cue.NewStoreWithIDs(sequentialIDs())

	first, ok := store.Add(cue.CuePoint{Time: 5})
	if !ok {
		t.Fatal("Add should succeed")
	}
	if first.ID != "id-1" {
		t.Errorf("ID = %q, want id-1", first.ID)
	}
	if first.Name != "Cue 1" {
		t.Errorf("Name = %q, want Cue 1", first.Name)
	}

	second, _ := store.Add(cue.CuePoint{Time: 1})
	if second.Name != "Cue 2" {
		t.Errorf("Name = %q, want Cue 2", second.Name)
	}
}

func TestStoreAddDuplicateIDIsNoop(t *testing.T) {
	store := cue.NewStore()
	store.Add(cue.CuePoint{ID: "a", Time: 1, Name: "one"})

	if _, ok := store.Add(cue.CuePoint{ID: "a", Time: 2, Name: "two"}); ok {
		t.Error("adding a duplicate id should report false")
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
	got, _ := store.Get("a")
	if got.Name != "one" {
		t.Errorf("existing cue was modified: %+v", got)
	}
}

func TestStoreRemove(t *testing.T) {
	store := cue.NewStore()
	store.Add(cue.CuePoint{ID: "a", Time: 1})
	store.Add(cue.CuePoint{ID: "b", Time: 2})

	if !store.Remove("a") {
		t.Error("Remove(a) should report true")
	}
	if store.Remove("missing") {
		t.Error("Remove of unknown id should report false")
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestStoreUpdateResorts(t *testing.T) {
	store := cue.NewStore()
	store.Add(cue.CuePoint{ID: "a", Time: 10})
	store.Add(cue.CuePoint{ID: "b", Time: 20})
	store.Add(cue.CuePoint{ID: "c", Time: 30})

	name := "moved"
	p := cue.TimePatch(25)
	p.Name = &name
	updated, ok := store.Update("a", p)
	if !ok {
		t.Fatal("Update should find cue a")
	}
	if updated.Time != 25 || updated.Name != "moved" {
		t.Errorf("updated = %+v", updated)
	}

	cues := store.Cues()
	order := []string{cues[0].ID, cues[1].ID, cues[2].ID}
	if order[0] != "b" || order[1] != "a" || order[2] != "c" {
		t.Errorf("order = %v, want [b a c]", order)
	}

	if _, ok := store.Update("missing", cue.TimePatch(1)); ok {
		t.Error("Update of unknown id should report false")
	}
}

func TestStoreTiesKeepInsertionOrder(t *testing.T) {
	store := cue.NewStore()
	store.Add(cue.CuePoint{ID: "first", Time: 5})
	store.Add(cue.CuePoint{ID: "late", Time: 1})
	store.Add(cue.CuePoint{ID: "second", Time: 5})

	// Moving the early cue onto the tie must not put it ahead of older cues.
	store.Update("late", cue.TimePatch(5))

	cues := store.Cues()
	want := []string{"first", "late", "second"}
	for i, id := range want {
		if cues[i].ID != id {
			t.Fatalf("position %d = %q, want %q", i, cues[i].ID, id)
		}
	}
}

func TestStoreToggleLockAndConfirm(t *testing.T) {
	store := cue.NewStore()
	store.Add(cue.CuePoint{ID: "a", Time: 1})

	locked, found := store.ToggleLock("a")
	if !found || !locked {
		t.Errorf("first ToggleLock = (%v, %v), want (true, true)", locked, found)
	}
	locked, _ = store.ToggleLock("a")
	if locked {
		t.Error("second ToggleLock should unlock")
	}

	confirmed, found := store.ToggleConfirm("a")
	if !found || !confirmed {
		t.Errorf("ToggleConfirm = (%v, %v), want (true, true)", confirmed, found)
	}

	if _, found := store.ToggleLock("missing"); found {
		t.Error("ToggleLock of unknown id should report not found")
	}
}

func TestStoreImportManyIssuesFreshIDs(t *testing.T) {
	store := cue.NewStoreWithIDs(sequentialIDs())
	store.Add(cue.CuePoint{Time: 0, Name: "intro"})

	imported := store.ImportMany([]cue.CuePoint{
		{ID: "id-1", Time: 60, Name: "dup id"},
		{Time: 0, Name: "intro"},
	})

	if len(imported) != 2 {
		t.Fatalf("imported %d cues, want 2", len(imported))
	}
	seen := map[string]bool{}
	for _, c := range store.Cues() {
		if seen[c.ID] {
			t.Errorf("duplicate id %q after import", c.ID)
		}
		seen[c.ID] = true
	}
	if store.Len() != 3 {
		t.Errorf("Len = %d, want 3 (imports are not de-duplicated)", store.Len())
	}
}

func TestStoreRandomOperationsStaySorted(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	store := cue.NewStore()

	for i := 0; i < 500; i++ {
		cues := store.Cues()
		switch op := rng.IntN(4); {
		case op == 0 || len(cues) == 0:
			store.Add(cue.CuePoint{Time: float64(rng.IntN(600))})
		case op == 1:
			store.Remove(cues[rng.IntN(len(cues))].ID)
		case op == 2:
			store.Update(cues[rng.IntN(len(cues))].ID, cue.TimePatch(float64(rng.IntN(600))))
		default:
			store.ImportMany([]cue.CuePoint{{Time: float64(rng.IntN(600))}})
		}

		ts := times(store.Cues())
		if !sort.Float64sAreSorted(ts) {
			t.Fatalf("store unsorted after step %d: %v", i, ts)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		cue      cue.CuePoint
		expected string
	}{
		{"artist and title", cue.CuePoint{Name: "n", Artist: "A", Title: "T"}, "A - T"},
		{"title only", cue.CuePoint{Name: "n", Title: "T"}, "T"},
		{"artist only", cue.CuePoint{Name: "n", Artist: "A"}, "A"},
		{"name fallback", cue.CuePoint{Name: "Cue 3"}, "Cue 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cue.DisplayName(); got != tt.expected {
				t.Errorf("DisplayName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestExportArtistPrecedence(t *testing.T) {
	c := cue.CuePoint{Artist: "Artist"}
	if got := c.ExportArtist("Default"); got != "Artist" {
		t.Errorf("got %q, want Artist", got)
	}
	c.Performer = "Performer"
	if got := c.ExportArtist("Default"); got != "Performer" {
		t.Errorf("got %q, want Performer", got)
	}
	if got := (cue.CuePoint{}).ExportArtist("Default"); got != "Default" {
		t.Errorf("got %q, want Default", got)
	}
}

func TestSplitArtistTitle(t *testing.T) {
	artist, title, ok := cue.SplitArtistTitle("Bicep - Glue - Edit")
	if !ok || artist != "Bicep" || title != "Glue - Edit" {
		t.Errorf("got (%q, %q, %v)", artist, title, ok)
	}
	if _, _, ok := cue.SplitArtistTitle("No separator"); ok {
		t.Error("expected no split without separator")
	}
}
