package session

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/cuesheet"
	"github.com/edumarques81/stellar-cue/internal/domain/playlist"
	"github.com/edumarques81/stellar-cue/internal/domain/timefmt"
	"github.com/edumarques81/stellar-cue/internal/domain/transport"
	"github.com/rs/zerolog/log"
)

// NewCue describes a cue to add. A nil Time places it at the playhead.
type NewCue struct {
	Time   *float64 `json:"time,omitempty"`
	Name   string   `json:"name,omitempty"`
	Artist string   `json:"artist,omitempty"`
	Title  string   `json:"title,omitempty"`
}

// AddCue inserts a cue point, by default at the current playhead.
func (s *Service) AddCue(ctx context.Context, nc NewCue) (cue.CuePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return cue.CuePoint{}, err
	}

	t := s.positionLocked(s.now())
	if nc.Time != nil {
		t = *nc.Time
	}
	c, _ := s.store.Add(cue.CuePoint{
		Time:   s.clampLocked(t),
		Name:   nc.Name,
		Artist: nc.Artist,
		Title:  nc.Title,
	})

	log.Info().Str("id", c.ID).Float64("position", c.Time).Str("name", c.Name).Msg("Cue added")
	s.cuesChangedLocked(ctx)
	s.toastLocked(ToastSuccess, "Cue point added", fmt.Sprintf("%s at %s", c.DisplayName(), timefmt.Clock(c.Time)))
	return c, nil
}

// RemoveCue deletes a cue point.
func (s *Service) RemoveCue(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Remove(id) {
		return fmt.Errorf("%w: %s", ErrCueNotFound, id)
	}
	if s.interaction.HoveredID == id {
		s.interaction.HoveredID = ""
	}
	log.Info().Str("id", id).Msg("Cue removed")
	s.cuesChangedLocked(ctx)
	return nil
}

// UpdateCue applies an edit. A new time is clamped to the file; explicit
// edits may move locked cues.
func (s *Service) UpdateCue(ctx context.Context, id string, p cue.Patch) (cue.CuePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Time != nil {
		t := s.clampLocked(*p.Time)
		p.Time = &t
	}
	c, ok := s.store.Update(id, p)
	if !ok {
		return cue.CuePoint{}, fmt.Errorf("%w: %s", ErrCueNotFound, id)
	}
	log.Info().Str("id", id).Float64("position", c.Time).Msg("Cue updated")
	s.cuesChangedLocked(ctx)
	return c, nil
}

// ToggleCueLock flips the locked flag of a cue and returns the new value.
func (s *Service) ToggleCueLock(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, ok := s.store.ToggleLock(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrCueNotFound, id)
	}
	log.Info().Str("id", id).Bool("locked", locked).Msg("Cue lock toggled")
	s.cuesChangedLocked(ctx)
	return locked, nil
}

// ToggleCueConfirm flips the confirmed flag of a cue and returns the new
// value.
func (s *Service) ToggleCueConfirm(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	confirmed, ok := s.store.ToggleConfirm(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrCueNotFound, id)
	}
	log.Info().Str("id", id).Bool("confirmed", confirmed).Msg("Cue confirm toggled")
	s.cuesChangedLocked(ctx)
	return confirmed, nil
}

// ImportResult summarizes a cue import.
type ImportResult struct {
	Format   cuesheet.Format      `json:"format,omitempty"`
	Imported int                  `json:"imported"`
	Skipped  []cuesheet.LineError `json:"skipped,omitempty"`
}

// ImportCueSheet parses a cue sheet or timestamp list and appends its cues.
// The sheet's performer and title fill in the session values when those are
// still empty.
func (s *Service) ImportCueSheet(ctx context.Context, r io.Reader) (ImportResult, error) {
	sheet, err := cuesheet.Parse(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.toastLocked(ToastError, "Import failed", err.Error())
		return ImportResult{}, fmt.Errorf("failed to import cue sheet: %w", err)
	}

	for i := range sheet.Cues {
		sheet.Cues[i].Time = s.clampLocked(sheet.Cues[i].Time)
	}
	imported := s.store.ImportMany(sheet.Cues)

	if s.performer == "" && sheet.Performer != "" {
		s.performer = sheet.Performer
	}
	if s.mixTitle == "" && sheet.Title != "" {
		s.mixTitle = sheet.Title
	}

	for _, le := range sheet.Skipped {
		log.Debug().Int("line", le.Line).Str("reason", le.Reason).Msg("Skipped cue line")
	}
	log.Info().
		Str("format", string(sheet.Format)).
		Int("imported", len(imported)).
		Int("skipped", len(sheet.Skipped)).
		Msg("Cue sheet imported")

	s.cuesChangedLocked(ctx)
	s.toastLocked(ToastSuccess, "Cue points imported", fmt.Sprintf("%d cue points", len(imported)))
	return ImportResult{Format: sheet.Format, Imported: len(imported), Skipped: sheet.Skipped}, nil
}

// ImportCueFile imports a cue sheet from disk.
func (s *Service) ImportCueFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open cue file: %w", err)
	}
	defer f.Close()
	return s.ImportCueSheet(ctx, f)
}

// ImportTracklist spreads the tracks of an untimed tracklist evenly over the
// loaded file.
func (s *Service) ImportTracklist(ctx context.Context, text string) (ImportResult, error) {
	tracks, err := cuesheet.ParseTracklist(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		err = s.requireFileLocked()
	}
	var cues []cue.CuePoint
	if err == nil {
		cues, err = cuesheet.Distribute(tracks, s.duration)
	}
	if err != nil {
		s.toastLocked(ToastError, "Import failed", err.Error())
		return ImportResult{}, fmt.Errorf("failed to import tracklist: %w", err)
	}

	imported := s.store.ImportMany(cues)
	log.Info().Int("tracks", len(imported)).Float64("duration", s.duration).Msg("Tracklist imported")
	s.cuesChangedLocked(ctx)
	s.toastLocked(ToastSuccess, "Tracklist imported", fmt.Sprintf("%d tracks", len(imported)))
	return ImportResult{Imported: len(imported)}, nil
}

// Export renders the cues in the format with the given id.
func (s *Service) Export(formatID string) (playlist.Rendered, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireFileLocked(); err != nil {
		return playlist.Rendered{}, err
	}
	cues := s.store.Cues()
	if len(cues) == 0 {
		return playlist.Rendered{}, ErrNoCues
	}

	out, err := playlist.Render(formatID, playlist.Export{
		FileName:  s.file.Name,
		Performer: s.performer,
		MixTitle:  s.mixTitle,
		Cues:      cues,
	})
	if err != nil {
		return playlist.Rendered{}, fmt.Errorf("failed to export: %w", err)
	}
	log.Info().Str("format", out.Format).Int("cues", len(cues)).Msg("Playlist exported")
	return out, nil
}

// SetPerformer sets the default performer used on export.
func (s *Service) SetPerformer(ctx context.Context, performer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.performer = performer
	s.saveLocked(ctx)
	s.notifyLocked(TopicCues)
}

// SetMixTitle sets the heading of exported tracklists.
func (s *Service) SetMixTitle(ctx context.Context, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mixTitle = title
	s.saveLocked(ctx)
	s.notifyLocked(TopicCues)
}

// cuesChangedLocked runs after every cue mutation: the remembered loop
// segment may be stale, the project is saved and clients are notified.
func (s *Service) cuesChangedLocked(ctx context.Context) {
	var actions []transport.Action
	s.state, actions = s.machine.Step(s.state, s.timeline(), transport.CuesChanged{})
	if err := s.applyLocked(actions); err != nil {
		log.Warn().Err(err).Msg("Failed to apply transport actions")
	}
	s.saveLocked(ctx)
	s.notifyLocked(TopicCues)
}

func (s *Service) saveLocked(ctx context.Context) {
	if s.repo == nil || s.file == nil {
		return
	}
	if s.cfg.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SaveTimeout)
		defer cancel()
	}

	p := cue.Project{
		Path:      s.file.Path,
		Performer: s.performer,
		MixTitle:  s.mixTitle,
		Cues:      s.store.Cues(),
		UpdatedAt: s.now(),
	}
	if err := s.repo.SaveProject(ctx, p); err != nil {
		log.Error().Err(err).Str("path", p.Path).Msg("Failed to save cues")
		s.toastLocked(ToastError, "Failed to save cues", err.Error())
	}
}

// clampLocked limits t to [0, duration], or to t >= 0 while the duration is
// unknown.
func (s *Service) clampLocked(t float64) float64 {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	if known(s.duration) && t > s.duration {
		return s.duration
	}
	return t
}
