// Package store is the persistence port for the session collection: the
// whole collection is written wholesale on every mutation and read wholesale
// at startup.
package store

import "github.com/modelmatrix/ava-console/internal/model/chat"

// State is the persisted process-wide session state.
type State struct {
	Sessions        []chat.Session `json:"sessions"`
	ActiveSessionID string         `json:"activeSessionId"`
}

// Port loads and saves the session collection. Load reports ok=false when
// nothing usable was persisted; corrupt data is treated as absent, never as
// an error the caller must surface.
type Port interface {
	Load() (State, bool, error)
	Save(State) error
}
