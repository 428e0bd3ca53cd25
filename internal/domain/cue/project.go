package cue

import (
	"errors"
	"time"
)

// ErrProjectNotFound is returned by project repositories when no cues were
// saved for a file.
var ErrProjectNotFound = errors.New("cue project not found")

// Project is the saved editing state of one audio file.
type Project struct {
	Path      string     `json:"path"`
	Performer string     `json:"performer"`
	MixTitle  string     `json:"mixTitle"`
	Cues      []CuePoint `json:"cues"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
