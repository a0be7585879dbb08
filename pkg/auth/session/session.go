package session

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	messagesKey = "_messages"
	userIDKey   = "_auth_user_id"
)

// Level classifies a flash message for rendering.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Session is a visitor's key/value state. Values are stored as JSON and
// replaced whole on every Set.
type Session struct {
	id         string
	previousID string
	values     map[string]json.RawMessage
	isNew      bool
	modified   bool
}

func newSession(id string) *Session {
	return &Session{id: id, values: map[string]json.RawMessage{}, isNew: true}
}

// ID returns the current session identifier.
func (s *Session) ID() string { return s.id }

// IsNew reports whether the session has never been persisted.
func (s *Session) IsNew() bool { return s.isNew }

// Modified reports whether the session changed since it was loaded.
func (s *Session) Modified() bool { return s.modified }

// Get decodes the value at key into dest and reports whether the key existed.
func (s *Session) Get(key string, dest any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("decoding session value %q: %w", key, err)
	}
	return true, nil
}

// Set replaces the value stored at key.
func (s *Session) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding session value %q: %w", key, err)
	}
	s.values[key] = raw
	s.modified = true
	return nil
}

// Delete removes key; a missing key is a no-op.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.modified = true
}

// Has reports whether key is present.
func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(level Level, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var queued []Flash
	if _, err := s.Get(messagesKey, &queued); err != nil {
		queued = nil
	}
	queued = append(queued, Flash{Level: level, Text: text})
	return s.Set(messagesKey, queued)
}

// PopFlashes returns and clears all queued messages.
func (s *Session) PopFlashes() []Flash {
	var queued []Flash
	found, err := s.Get(messagesKey, &queued)
	if !found {
		return nil
	}
	s.Delete(messagesKey)
	if err != nil {
		return nil
	}
	return queued
}

// SetUserID binds the session to an authenticated account.
func (s *Session) SetUserID(id uint) error {
	return s.Set(userIDKey, id)
}

// ClearUserID drops the authenticated account binding.
func (s *Session) ClearUserID() {
	s.Delete(userIDKey)
}

// UserID returns the authenticated account id, if any.
func (s *Session) UserID() (uint, bool) {
	var id uint
	found, err := s.Get(userIDKey, &id)
	if !found || err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func (s *Session) encode() (string, error) {
	raw, err := json.Marshal(s.values)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}
	return string(raw), nil
}

func decode(id, payload string) (*Session, error) {
	values := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	if values == nil {
		values = map[string]json.RawMessage{}
	}
	return &Session{id: id, values: values}, nil
}
