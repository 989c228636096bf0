package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"cropkit/cropper"
	"cropkit/geometry"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one image being edited in the browser.
type Session struct {
	ID       string
	Filename string
	Created  time.Time

	mu       sync.Mutex
	instance *cropper.Instance
}

// Do runs fn with exclusive access to the session's cropper.
func (s *Session) Do(fn func(i *cropper.Instance) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.instance)
}

// Reset shows a new image in the session's cropper.
func (s *Session) Reset(boundary, image geometry.Size, transforms geometry.Transforms) cropper.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instance.Reset(boundary, image, transforms)
}

// View snapshots the session for the API.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newSessionView(s.ID, s.Filename, s.instance)
}

type SessionView struct {
	ID          string                `json:"id"`
	Filename    string                `json:"filename"`
	State       cropper.State         `json:"state"`
	Render      *cropper.RenderParams `json:"render,omitempty"`
	Diagnostics []cropper.Diagnostic  `json:"diagnostics,omitempty"`
}

func newSessionView(id, filename string, i *cropper.Instance) SessionView {
	v := SessionView{
		ID:          id,
		Filename:    filename,
		State:       i.State(),
		Diagnostics: i.Diagnostics(),
	}
	if params, ok := cropper.Render(v.State); ok {
		v.Render = &params
	}
	return v
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  func() *cropper.Instance
}

func NewSessionStore(factory func() *cropper.Instance) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		factory:  factory,
	}
}

// Create registers a session for filename with a fresh cropper. The caller
// initializes the cropper through Do.
func (st *SessionStore) Create(filename string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Filename: filename,
		Created:  time.Now(),
		instance: st.factory(),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(st.sessions, id)
	return nil
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
