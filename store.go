package avp

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SecretInfo is one row of a secret listing. Values are never included.
type SecretInfo struct {
	Name      string
	Version   int
	CreatedAt time.Time
}

// VersionInfo describes one retained version of a secret.
type VersionInfo struct {
	Version   int
	CreatedAt time.Time
}

// secretVersion is an immutable snapshot of a secret's value. Once persisted
// it is never mutated; rotation appends a new version instead.
type secretVersion struct {
	Number    int       `json:"number"`
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

type secret struct {
	Name     string          `json:"name"`
	Current  int             `json:"current"`
	Versions []secretVersion `json:"versions"`
}

// currentVersion returns the version the Current pointer names. Versions are
// strictly increasing from 1 and Current is always the highest, so it is the
// last element.
func (s *secret) currentVersion() *secretVersion {
	for i := range s.Versions {
		if s.Versions[i].Number == s.Current {
			return &s.Versions[i]
		}
	}
	return nil
}

type workspace struct {
	Name    string             `json:"name"`
	Secrets map[string]*secret `json:"secrets"`
}

// credentialStore is the decrypted in-memory model of a vault. All operations
// are synchronous and purely in-memory; the client persists after mutations.
type credentialStore struct {
	Workspaces map[string]*workspace `json:"workspaces"`
}

func newCredentialStore() *credentialStore {
	return &credentialStore{
		Workspaces: make(map[string]*workspace),
	}
}

func decodeCredentialStore(data []byte) (*credentialStore, error) {
	var s credentialStore
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault payload: %w", err)
	}
	if s.Workspaces == nil {
		s.Workspaces = make(map[string]*workspace)
	}
	for name, ws := range s.Workspaces {
		if ws.Secrets == nil {
			s.Workspaces[name].Secrets = make(map[string]*secret)
		}
	}
	return &s, nil
}

func (s *credentialStore) encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vault payload: %w", err)
	}
	return data, nil
}

// ensureWorkspace creates the workspace if absent and reports whether it was
// created.
func (s *credentialStore) ensureWorkspace(name string) bool {
	if _, ok := s.Workspaces[name]; ok {
		return false
	}
	s.Workspaces[name] = &workspace{
		Name:    name,
		Secrets: make(map[string]*secret),
	}
	return true
}

// store sets the value of a secret. An existing key has its current version's
// value overwritten in place; history does not grow. An absent key gets
// version 1.
func (s *credentialStore) store(wsName, key string, value []byte) {
	ws := s.Workspaces[wsName]
	value = append([]byte(nil), value...)
	now := time.Now()

	sec, ok := ws.Secrets[key]
	if !ok {
		ws.Secrets[key] = &secret{
			Name:    key,
			Current: 1,
			Versions: []secretVersion{{
				Number:    1,
				Value:     value,
				CreatedAt: now,
			}},
		}
		return
	}

	cur := sec.currentVersion()
	cur.Value = value
	cur.CreatedAt = now
}

// retrieve returns the current version's value.
func (s *credentialStore) retrieve(wsName, key string) ([]byte, bool) {
	sec, ok := s.Workspaces[wsName].Secrets[key]
	if !ok {
		return nil, false
	}
	cur := sec.currentVersion()
	return append([]byte(nil), cur.Value...), true
}

// rotate appends a new version, retaining prior versions in history. An
// absent key behaves as store, creating version 1.
func (s *credentialStore) rotate(wsName, key string, value []byte) {
	ws := s.Workspaces[wsName]
	sec, ok := ws.Secrets[key]
	if !ok {
		s.store(wsName, key, value)
		return
	}

	next := sec.Current + 1
	sec.Versions = append(sec.Versions, secretVersion{
		Number:    next,
		Value:     append([]byte(nil), value...),
		CreatedAt: time.Now(),
	})
	sec.Current = next
}

// listSecrets returns one entry per secret, ordered by name.
func (s *credentialStore) listSecrets(wsName string) []SecretInfo {
	ws := s.Workspaces[wsName]
	infos := make([]SecretInfo, 0, len(ws.Secrets))
	for _, sec := range ws.Secrets {
		cur := sec.currentVersion()
		infos = append(infos, SecretInfo{
			Name:      sec.Name,
			Version:   cur.Number,
			CreatedAt: cur.CreatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// delete removes a secret and all its versions atomically. Reports false for
// an absent key; delete is idempotent, never an error.
func (s *credentialStore) delete(wsName, key string) bool {
	ws := s.Workspaces[wsName]
	if _, ok := ws.Secrets[key]; !ok {
		return false
	}
	delete(ws.Secrets, key)
	return true
}

// versions returns the retained history of a secret, oldest first.
func (s *credentialStore) versions(wsName, key string) ([]VersionInfo, bool) {
	sec, ok := s.Workspaces[wsName].Secrets[key]
	if !ok {
		return nil, false
	}
	infos := make([]VersionInfo, 0, len(sec.Versions))
	for _, v := range sec.Versions {
		infos = append(infos, VersionInfo{
			Version:   v.Number,
			CreatedAt: v.CreatedAt,
		})
	}
	return infos, true
}

// versionValue returns the value of one retained version.
func (s *credentialStore) versionValue(wsName, key string, number int) ([]byte, bool) {
	sec, ok := s.Workspaces[wsName].Secrets[key]
	if !ok {
		return nil, false
	}
	for i := range sec.Versions {
		if sec.Versions[i].Number == number {
			return append([]byte(nil), sec.Versions[i].Value...), true
		}
	}
	return nil, false
}
