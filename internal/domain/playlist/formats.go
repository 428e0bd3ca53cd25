package playlist

import (
	"fmt"
	"strings"
)

// Format describes one export target.
type Format struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Extension string `json:"extension"`
	MimeType  string `json:"mimeType"`

	render func(Export) string
}

// Rendered is a serialized playlist ready to be offered as a download.
type Rendered struct {
	Format   string `json:"format"`
	FileName string `json:"filename"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"`
}

// Formats lists every supported export in display order.
var Formats = []Format{
	{ID: "cue", Label: "CUE Sheet", Extension: "cue", MimeType: "text/plain", render: CUE},
	{ID: "m3u", Label: "M3U Playlist", Extension: "m3u", MimeType: "audio/x-mpegurl", render: M3U},
	{ID: "m3u8", Label: "M3U8 Playlist", Extension: "m3u8", MimeType: "application/vnd.apple.mpegurl", render: M3U8},
	{ID: "pls", Label: "PLS Playlist", Extension: "pls", MimeType: "audio/x-scpls", render: PLS},
	{ID: "tracklist", Label: "Tracklist", Extension: "txt", MimeType: "text/plain; charset=utf-8", render: Tracklist},
	{ID: "table", Label: "Tracklist Table", Extension: "txt", MimeType: "text/plain; charset=utf-8", render: TracklistTable},
}

// Lookup finds a format by id, case-insensitively.
func Lookup(id string) (Format, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, f := range Formats {
		if f.ID == id {
			return f, true
		}
	}
	return Format{}, false
}

// Render serializes e in the format with the given id. The download name is
// the audio file name with the format's extension.
func Render(id string, e Export) (Rendered, error) {
	f, ok := Lookup(id)
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %q", ErrUnknownFormat, id)
	}

	name := e.baseName()
	if name == "" {
		name = "playlist"
	}
	return Rendered{
		Format:   f.ID,
		FileName: name + "." + f.Extension,
		MimeType: f.MimeType,
		Content:  f.render(e),
	}, nil
}
