package model

import (
	"encoding/json"
	"time"
)

type State int

const (
	Active State = iota
	Trashed
	Purged
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Trashed:
		return "trashed"
	case Purged:
		return "purged"
	}

	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Lifecycle wraps the nullable deleted_at column so callers never have to
// interpret a raw timestamp. Since is only set for Trashed.
type Lifecycle struct {
	State State      `json:"state"`
	Since *time.Time `json:"since,omitempty"`
}
