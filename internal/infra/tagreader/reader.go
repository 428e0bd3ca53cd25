// Package tagreader reads embedded audio tags with github.com/dhowden/tag.
package tagreader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
	"github.com/edumarques81/stellar-cue/internal/domain/session"
	"github.com/edumarques81/stellar-cue/internal/domain/tags"
	"github.com/rs/zerolog/log"
)

// ErrNoTags is returned for files without any recognised tag block.
var ErrNoTags = errors.New("no tags found")

// Reader implements session.TagReader over local files.
type Reader struct{}

// New creates a tag reader.
func New() *Reader {
	return &Reader{}
}

// ReadTags opens path and extracts its raw tags. Fallbacks are left to
// tags.Resolve.
func (r *Reader) ReadTags(path string) (tags.Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return tags.Raw{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return tags.Raw{}, ErrNoTags
	}
	if err != nil {
		return tags.Raw{}, fmt.Errorf("failed to read tags of %s: %w", path, err)
	}

	raw := FromMetadata(m)
	log.Debug().
		Str("path", path).
		Str("type", raw.FileType).
		Bool("cover", raw.Picture != nil).
		Msg("Tags read")
	return raw, nil
}

// FromMetadata converts parsed tag metadata into tags.Raw.
func FromMetadata(m tag.Metadata) tags.Raw {
	raw := tags.Raw{
		Title:       m.Title(),
		Artist:      m.Artist(),
		Album:       m.Album(),
		AlbumArtist: m.AlbumArtist(),
		Composer:    m.Composer(),
		Genre:       m.Genre(),
		Comment:     m.Comment(),
		Year:        m.Year(),
		FileType:    fileType(m.FileType()),
	}
	raw.Track, raw.TrackTotal = m.Track()

	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		raw.Picture = &tags.Picture{
			MIMEType: pic.MIMEType,
			Ext:      pic.Ext,
			Data:     pic.Data,
		}
	}
	return raw
}

func fileType(ft tag.FileType) string {
	if ft == tag.UnknownFileType {
		return ""
	}
	return strings.ToUpper(string(ft))
}

var _ session.TagReader = (*Reader)(nil)
