package registry

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ClientState is the small JSON file remembering which session an operator
// was last working in. It is read once at startup and rewritten on change.
type ClientState struct {
	mu   sync.Mutex
	path string
	data clientStateData
}

type clientStateData struct {
	ActiveSession string `json:"active_session"`
}

// LoadClientState reads the state file at path. A missing file yields an
// empty state; a malformed file is an error.
func LoadClientState(path string) (*ClientState, error) {
	s := &ClientState{path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, err
	}
	return s, nil
}

// ActiveSession returns the remembered session id, possibly empty.
func (s *ClientState) ActiveSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ActiveSession
}

// SetActiveSession persists a new remembered session id.
func (s *ClientState) SetActiveSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.ActiveSession = id
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, raw, 0o644)
}
