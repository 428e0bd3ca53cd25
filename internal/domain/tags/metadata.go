// Package tags resolves the metadata of a loaded audio file from its raw
// embedded tags, with fallbacks for missing fields.
package tags

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// UnknownArtist is shown when neither artist field is tagged.
const UnknownArtist = "Unknown Artist"

// Picture is an embedded cover image.
type Picture struct {
	MIMEType string
	Ext      string
	Data     []byte
}

// Raw is what a tag reader extracted, without any fallback applied. Empty
// strings and zero numbers mean the field is absent.
type Raw struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Composer    string
	Genre       string
	Comment     string
	Year        int
	Track       int
	TrackTotal  int
	FileType    string // MP3, FLAC, ...
	Picture     *Picture
}

// Metadata is the resolved view of a file's tags.
type Metadata struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	AlbumArtist string `json:"albumArtist,omitempty"`
	Composer    string `json:"composer,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Year        string `json:"year,omitempty"`
	Track       string `json:"track,omitempty"`
	Format      string `json:"format"`
	HasCover    bool   `json:"hasCover"`

	// ArtistTagged is false when Artist is the UnknownArtist placeholder.
	ArtistTagged bool `json:"artistTagged"`

	Cover *Picture `json:"-"`
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// Resolve applies fallbacks to raw tags:
//   - Title: tag, then the file name without extension
//   - Artist: tag, then album artist, then UnknownArtist
//   - AlbumArtist: tag, then the resolved artist when tagged
//   - Year: tag, then a 19xx/20xx year found in the file name
//   - Format: tagged file type, then the upper-cased extension
func Resolve(raw Raw, fileName string) Metadata {
	base := filepath.Base(fileName)
	ext := filepath.Ext(base)

	m := Metadata{
		Title:       strings.TrimSpace(raw.Title),
		Artist:      strings.TrimSpace(raw.Artist),
		Album:       strings.TrimSpace(raw.Album),
		AlbumArtist: strings.TrimSpace(raw.AlbumArtist),
		Composer:    strings.TrimSpace(raw.Composer),
		Genre:       strings.TrimSpace(raw.Genre),
		Comment:     strings.TrimSpace(raw.Comment),
		Format:      strings.ToUpper(raw.FileType),
		Cover:       raw.Picture,
		HasCover:    raw.Picture != nil && len(raw.Picture.Data) > 0,
	}

	if m.Title == "" {
		m.Title = strings.TrimSuffix(base, ext)
	}

	if m.Artist == "" {
		m.Artist = m.AlbumArtist
	}
	m.ArtistTagged = m.Artist != ""
	if !m.ArtistTagged {
		m.Artist = UnknownArtist
	}
	if m.AlbumArtist == "" && m.ArtistTagged {
		m.AlbumArtist = m.Artist
	}

	switch {
	case raw.Year > 0:
		m.Year = strconv.Itoa(raw.Year)
	default:
		m.Year = yearPattern.FindString(base)
	}

	if raw.Track > 0 {
		m.Track = strconv.Itoa(raw.Track)
		if raw.TrackTotal > 0 {
			m.Track += "/" + strconv.Itoa(raw.TrackTotal)
		}
	}

	if m.Format == "" && ext != "" {
		m.Format = strings.ToUpper(strings.TrimPrefix(ext, "."))
	}

	return m
}

// Entry is one labelled row of the file info view.
type Entry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Entries lists the present fields in display order.
func (m Metadata) Entries() []Entry {
	fields := []Entry{
		{"Title", m.Title},
		{"Artist", m.Artist},
		{"Album", m.Album},
		{"Album Artist", m.AlbumArtist},
		{"Year", m.Year},
		{"Genre", m.Genre},
		{"Track", m.Track},
		{"Composer", m.Composer},
		{"Comment", m.Comment},
		{"Format", m.Format},
	}

	out := fields[:0]
	for _, e := range fields {
		if e.Value != "" {
			out = append(out, e)
		}
	}
	return out
}
