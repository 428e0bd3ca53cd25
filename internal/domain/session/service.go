// Package session orchestrates one cue editing session: the loaded file, its
// cue store, the transport state machine, the waveform view and the visual
// frame state. Every operation runs under one lock so a cue mutation is
// complete before the next segment resolution reads the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/edumarques81/stellar-cue/internal/domain/cue"
	"github.com/edumarques81/stellar-cue/internal/domain/playlist"
	"github.com/edumarques81/stellar-cue/internal/domain/segment"
	"github.com/edumarques81/stellar-cue/internal/domain/tags"
	"github.com/edumarques81/stellar-cue/internal/domain/transport"
	"github.com/edumarques81/stellar-cue/internal/domain/visual"
	"github.com/edumarques81/stellar-cue/internal/domain/waveform"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoFile is returned by operations that need a loaded file.
	ErrNoFile = errors.New("no audio file loaded")

	// ErrNoCues is returned when exporting a file without cue points.
	ErrNoCues = errors.New("no cue points to export")

	// ErrCueNotFound is returned for operations on an unknown cue id.
	ErrCueNotFound = errors.New("cue not found")

	// ErrNoDrag is returned when a drag move or end arrives without a drag.
	ErrNoDrag = errors.New("no cue drag in progress")

	// ErrDurationUnknown is returned by pixel based operations before the
	// host has reported the file duration.
	ErrDurationUnknown = errors.New("duration not known yet")
)

// HostStatus is what the media host reports about playback.
type HostStatus struct {
	CurrentTime float64
	Duration    float64 // 0 while unknown
	Paused      bool
	Stopped     bool
	Format      string // Output format description, if known
}

// Host plays the media. Implementations must be safe for use from one
// goroutine at a time; the session never calls them concurrently.
type Host interface {
	Open(uri string) error
	Status() (HostStatus, error)
	Seek(t float64) error
	Play() error
	Pause() error
	SetPlaybackRate(rate float64) error
	SetVolume(gain float64) error
}

// LevelSource supplies frequency band levels for the current frame. ok is
// false when no analysis is available.
type LevelSource interface {
	Levels() (levels visual.Levels, ok bool)
}

// TagReader extracts embedded tags from a file.
type TagReader interface {
	ReadTags(path string) (tags.Raw, error)
}

// Repository persists cue projects per audio file. LoadProject returns
// cue.ErrProjectNotFound when nothing was saved for path.
type Repository interface {
	SaveProject(ctx context.Context, p cue.Project) error
	LoadProject(ctx context.Context, path string) (cue.Project, error)
}

// Topic names the part of the session that changed.
type Topic string

const (
	TopicFile      Topic = "file"
	TopicCues      Topic = "cues"
	TopicTransport Topic = "transport"
	TopicView      Topic = "view"
	TopicProgress  Topic = "progress"
	TopicHover     Topic = "hover"
)

// Toast levels.
const (
	ToastInfo    = "info"
	ToastSuccess = "success"
	ToastError   = "error"
)

// Toast is a short user-facing notification.
type Toast struct {
	Level   string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// Listener receives change notifications. Calls are made while the session
// lock is held, so implementations must not call back into the session
// synchronously.
type Listener interface {
	Changed(topic Topic)
	Toast(t Toast)
}

// Config holds session settings.
type Config struct {
	Transport     transport.Config
	TickInterval  time.Duration
	FrameInterval time.Duration
	CanvasWidth   float64
	// DefaultPerformer is used when a file has no tagged artist.
	DefaultPerformer string
	// SaveTimeout bounds each project save.
	SaveTimeout time.Duration
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() Config {
	return Config{
		Transport:     transport.DefaultConfig(),
		TickInterval:  250 * time.Millisecond,
		FrameInterval: 33 * time.Millisecond,
		CanvasWidth:   1000,
		SaveTimeout:   2 * time.Second,
	}
}

// File describes the loaded audio file.
type File struct {
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Meta     tags.Metadata `json:"meta"`
	Entries  []tags.Entry  `json:"entries"`
	Output   string        `json:"output,omitempty"`
	LoadedAt time.Time     `json:"loadedAt"`
}

// Service is the editing session.
type Service struct {
	mu sync.Mutex

	cfg      Config
	host     Host
	levels   LevelSource
	tags     TagReader
	repo     Repository
	listener Listener
	now      func() time.Time

	machine *transport.Machine
	state   transport.State
	store   *cue.Store
	mapper  *waveform.Mapper

	file      *File
	cover     []byte
	duration  float64
	current   float64
	sampledAt time.Time
	performer string
	mixTitle  string

	interaction waveform.Interaction
	drag        *waveform.Drag

	frame    visual.FrameState
	smoother visual.Smoother
	wake     chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithLevelSource sets the frequency analysis provider.
func WithLevelSource(src LevelSource) Option {
	return func(s *Service) { s.levels = src }
}

// WithTagReader sets the tag reader used on load.
func WithTagReader(r TagReader) Option {
	return func(s *Service) { s.tags = r }
}

// WithRepository enables cue persistence.
func WithRepository(r Repository) Option {
	return func(s *Service) { s.repo = r }
}

// WithStore replaces the cue store, mainly for deterministic ids in tests.
func WithStore(st *cue.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithResolver sets the navigation resolver, mainly for a seeded shuffle.
func WithResolver(r *segment.Resolver) Option {
	return func(s *Service) { s.machine = transport.NewMachine(s.cfg.Transport, r) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a session bound to a media host.
func NewService(cfg Config, host Host, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		host:    host,
		now:     time.Now,
		machine: transport.NewMachine(cfg.Transport, nil),
		state:   transport.NewState(),
		store:   cue.NewStore(),
		mapper:  waveform.NewMapper(cfg.CanvasWidth),
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetListener registers the change listener.
func (s *Service) SetListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// Load opens a file on the host. Unless keepCues is set, the cue store is
// replaced by the project saved for the file, or emptied when there is none.
func (s *Service) Load(ctx context.Context, path string, keepCues bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info().Str("path", path).Bool("keepCues", keepCues).Msg("Loading file")

	var actions []transport.Action
	s.state, actions = s.machine.Step(s.state, s.timeline(), transport.Load{})

	if err := s.host.Open(path); err != nil {
		s.toastLocked(ToastError, "Failed to open file", err.Error())
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	s.file = &File{Path: path, Name: filepath.Base(path), LoadedAt: s.now()}
	s.duration = 0
	s.current = 0
	s.sampledAt = time.Time{}
	s.drag = nil
	s.interaction = waveform.Interaction{}
	s.mapper.SetDuration(0)
	s.mapper.SetPeaks(nil)
	s.mapper.ResetZoom()
	s.smoother.Reset()
	s.readTagsLocked(path)

	if !keepCues {
		s.store.Reset()
		s.mixTitle = ""
		s.performer = s.defaultPerformerLocked()
		s.restoreProjectLocked(ctx, path)
	}

	s.applyLocked(actions)
	s.notifyLocked(TopicFile, TopicCues, TopicTransport, TopicView)
	return nil
}

func (s *Service) readTagsLocked(path string) {
	var raw tags.Raw
	s.cover = nil
	if s.tags != nil {
		r, err := s.tags.ReadTags(path)
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("No readable tags")
		} else {
			raw = r
		}
	}

	meta := tags.Resolve(raw, path)
	s.file.Meta = meta
	s.file.Entries = meta.Entries()

	if meta.HasCover {
		thumb, err := tags.Thumbnail(meta.Cover, tags.ThumbMedium)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to build cover thumbnail")
			return
		}
		s.cover = thumb
	}
}

func (s *Service) restoreProjectLocked(ctx context.Context, path string) {
	if s.repo == nil {
		return
	}
	p, err := s.repo.LoadProject(ctx, path)
	switch {
	case errors.Is(err, cue.ErrProjectNotFound):
		return
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("Failed to load saved cues")
		return
	}

	s.store.Replace(p.Cues)
	if p.Performer != "" {
		s.performer = p.Performer
	}
	s.mixTitle = p.MixTitle
	log.Info().Int("cues", len(p.Cues)).Str("path", path).Msg("Restored saved cues")
	if len(p.Cues) > 0 {
		s.toastLocked(ToastInfo, "Cues restored", fmt.Sprintf("%d cue points", len(p.Cues)))
	}
}

func (s *Service) defaultPerformerLocked() string {
	if s.file != nil && s.file.Meta.ArtistTagged {
		return s.file.Meta.Artist
	}
	return s.cfg.DefaultPerformer
}

// Cover returns the JPEG cover thumbnail of the loaded file.
func (s *Service) Cover() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cover, len(s.cover) > 0
}

// Snapshot is the full state pushed to clients.
type Snapshot struct {
	File        *File                `json:"file"`
	Transport   transport.State      `json:"transport"`
	Rate        float64              `json:"rate"`
	Time        float64              `json:"time"`
	Duration    float64              `json:"duration"`
	Cues        []cue.CuePoint       `json:"cues"`
	Active      *segment.Track       `json:"active,omitempty"`
	View        waveform.View        `json:"view"`
	Interaction waveform.Interaction `json:"interaction"`
	Drag        *waveform.Drag       `json:"drag,omitempty"`
	Performer   string               `json:"performer"`
	MixTitle    string               `json:"mixTitle"`
	Formats     []playlist.Format    `json:"formats"`
}

// Snapshot returns the current session state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cues := s.store.Cues()
	snap := Snapshot{
		File:        s.file,
		Transport:   s.state,
		Rate:        s.state.Rate(),
		Time:        s.current,
		Duration:    s.duration,
		Cues:        cues,
		View:        s.mapper.Snapshot(),
		Interaction: s.interaction,
		Performer:   s.performer,
		MixTitle:    s.mixTitle,
		Formats:     playlist.Formats,
	}
	if tr, ok := segment.Current(cues, s.current, s.duration); ok {
		snap.Active = &tr
	}
	if s.drag != nil {
		d := *s.drag
		snap.Drag = &d
	}
	return snap
}

func (s *Service) timeline() transport.Timeline {
	return transport.Timeline{Cues: s.store.Cues(), Duration: s.duration}
}

func (s *Service) requireFileLocked() error {
	if s.file == nil {
		return ErrNoFile
	}
	return nil
}

func (s *Service) notifyLocked(topics ...Topic) {
	if s.listener == nil {
		return
	}
	for _, t := range topics {
		s.listener.Changed(t)
	}
}

func (s *Service) toastLocked(level, title, message string) {
	if s.listener == nil {
		return
	}
	s.listener.Toast(Toast{Level: level, Title: title, Message: message})
}
