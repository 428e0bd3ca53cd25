package tagreader_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/edumarques81/stellar-cue/internal/infra/tagreader"
)

func TestReadTagsMissingFile(t *testing.T) {
	r := tagreader.New()

	_, err := r.ReadTags(filepath.Join(t.TempDir(), "missing.mp3"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestReadTagsWithoutTagBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.mp3")
	if err := os.WriteFile(path, []byte("this is not an audio file at all"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raw, err := tagreader.New().ReadTags(path)
	if err == nil {
		t.Fatalf("expected error, got %+v", raw)
	}
	if raw.Title != "" || raw.Picture != nil {
		t.Errorf("expected empty tags on error, got %+v", raw)
	}
}

func TestReadTagsID3v1(t *testing.T) {
	// ID3v1 is a fixed 128 byte trailer: "TAG", title[30], artist[30],
	// album[30], year[4], comment[28], 0, track, genre.
	block := make([]byte, 128)
	copy(block[0:], "TAG")
	copy(block[3:], "Opening Set")
	copy(block[33:], "DJ Test")
	copy(block[63:], "Night Mix")
	copy(block[93:], "2021")
	block[126] = 3
	block[127] = 17

	data := append(make([]byte, 256), block...)
	path := filepath.Join(t.TempDir(), "mix.mp3")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raw, err := tagreader.New().ReadTags(path)
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if raw.Title != "Opening Set" {
		t.Errorf("Title = %q", raw.Title)
	}
	if raw.Artist != "DJ Test" {
		t.Errorf("Artist = %q", raw.Artist)
	}
	if raw.Album != "Night Mix" {
		t.Errorf("Album = %q", raw.Album)
	}
	if raw.Year != 2021 {
		t.Errorf("Year = %d", raw.Year)
	}
	if raw.Track != 3 {
		t.Errorf("Track = %d", raw.Track)
	}
	if raw.FileType != "MP3" {
		t.Errorf("FileType = %q", raw.FileType)
	}
}
