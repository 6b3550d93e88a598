// Package editor models the client-side editing state of a project:
// which files are open, which one is active, what has unsaved changes,
// and when changes get flushed back to the server.
package editor

import (
	"errors"
	"path"
	"strings"
	"sync"
	"time"
)

// DefaultAutoSaveDelay is how long the session waits after the last edit
// before flushing dirty files.
const DefaultAutoSaveDelay = 2 * time.Second

// ErrNotOpen is returned for operations on a file path that is not open.
var ErrNotOpen = errors.New("editor: file not open")

// SaveFunc persists one file's content. It is called outside the session
// lock, so it may do network I/O.
type SaveFunc func(filePath, content string) error

// OpenFile is a read-only snapshot of one open file.
type OpenFile struct {
	Path    string
	Name    string
	Content string
	Dirty   bool
}

type openFile struct {
	path    string
	content string
	dirty   bool
}

// Session tracks the open files of one project.
//
// Files keep their insertion order: closing the active file activates
// the first remaining open file, the way editor tab strips behave.
//
// Edits are auto-saved after a quiet period (DefaultAutoSaveDelay).
// One pending timer covers the whole session; every edit pushes it
// back, and when it fires all dirty files flush at once. A manual Save
// bypasses the wait entirely.
type Session struct {
	mu     sync.Mutex
	files  []*openFile // insertion order
	active string      // path of the active file, "" when none open
	saveFn SaveFunc
	delay  time.Duration
	timer  *time.Timer
	svErr  error // most recent auto-save failure
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithAutoSaveDelay overrides the debounce delay. A zero or negative
// delay disables auto-save; only manual Save persists.
func WithAutoSaveDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.delay = d }
}

// NewSession creates a Session that persists through save.
func NewSession(save SaveFunc, opts ...SessionOption) *Session {
	s := &Session{
		saveFn: save,
		delay:  DefaultAutoSaveDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens filePath with the given content and makes it active.
// Opening an already-open file only switches the active file; the
// in-session content (possibly dirty) is kept.
func (s *Session) Open(filePath, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(filePath) == nil {
		s.files = append(s.files, &openFile{path: filePath, content: content})
	}
	s.active = filePath
}

// Close closes filePath. Pending unsaved changes in that file are
// discarded. If the closed file was active, the first remaining file in
// insertion order becomes active.
func (s *Session) Close(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, f := range s.files {
		if f.path == filePath {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotOpen
	}

	s.files = append(s.files[:idx], s.files[idx+1:]...)
	if s.active == filePath {
		s.active = ""
		if len(s.files) > 0 {
			s.active = s.files[0].path
		}
	}
	return nil
}

// CloseAll closes every open file, discarding unsaved changes.
func (s *Session) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
	s.active = ""
	s.stopTimerLocked()
}

// CloseOthers closes everything except filePath, which becomes active.
func (s *Session) CloseOthers(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.find(filePath)
	if kept == nil {
		return ErrNotOpen
	}
	s.files = []*openFile{kept}
	s.active = filePath
	return nil
}

// SetActive switches the active file.
func (s *Session) SetActive(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(filePath) == nil {
		return ErrNotOpen
	}
	s.active = filePath
	return nil
}

// UpdateContent records an edit, marks the file dirty, and (re)arms the
// auto-save timer.
func (s *Session) UpdateContent(filePath, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.find(filePath)
	if f == nil {
		return ErrNotOpen
	}
	f.content = content
	f.dirty = true

	if s.delay > 0 {
		s.stopTimerLocked()
		s.timer = time.AfterFunc(s.delay, s.autoSave)
	}
	return nil
}

// Save persists filePath immediately, skipping the debounce wait. If no
// other file remains dirty the pending auto-save is cancelled.
func (s *Session) Save(filePath string) error {
	s.mu.Lock()
	f := s.find(filePath)
	if f == nil {
		s.mu.Unlock()
		return ErrNotOpen
	}
	content := f.content
	s.mu.Unlock()

	if err := s.saveFn(filePath, content); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Only clear the flag if the content we saved is still current.
	if f := s.find(filePath); f != nil && f.content == content {
		f.dirty = false
	}
	if !s.anyDirtyLocked() {
		s.stopTimerLocked()
	}
	return nil
}

// SaveAll persists every dirty file immediately. The first error is
// returned; remaining files are still attempted.
func (s *Session) SaveAll() error {
	s.mu.Lock()
	var paths []string
	for _, f := range s.files {
		if f.dirty {
			paths = append(paths, f.path)
		}
	}
	s.mu.Unlock()

	var firstErr error
	for _, p := range paths {
		if err := s.Save(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Rename moves an open file to a new path, keeping its content, dirty
// flag, tab position, and active status.
func (s *Session) Rename(oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.find(oldPath)
	if f == nil {
		return ErrNotOpen
	}
	f.path = newPath
	if s.active == oldPath {
		s.active = newPath
	}
	return nil
}

// RenameFolder rewrites the paths of all open files under oldPrefix,
// for when a folder is renamed while its files are open.
func (s *Session) RenameFolder(oldPrefix, newPrefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldPrefix = strings.TrimSuffix(oldPrefix, "/") + "/"
	newPrefix = strings.TrimSuffix(newPrefix, "/") + "/"

	for _, f := range s.files {
		if strings.HasPrefix(f.path, oldPrefix) {
			moved := newPrefix + strings.TrimPrefix(f.path, oldPrefix)
			if s.active == f.path {
				s.active = moved
			}
			f.path = moved
		}
	}
}

// Active returns the active file, or ok=false when nothing is open.
func (s *Session) Active() (OpenFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.find(s.active)
	if f == nil {
		return OpenFile{}, false
	}
	return snapshot(f), true
}

// Files returns the open files in insertion order.
func (s *Session) Files() []OpenFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OpenFile, len(s.files))
	for i, f := range s.files {
		out[i] = snapshot(f)
	}
	return out
}

// HasUnsaved reports whether any open file has unflushed edits.
func (s *Session) HasUnsaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anyDirtyLocked()
}

// SaveErr returns the most recent auto-save failure, or nil. A later
// successful flush clears it.
func (s *Session) SaveErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.svErr
}

// autoSave is the timer callback: flush every dirty file.
func (s *Session) autoSave() {
	s.mu.Lock()
	type pending struct {
		f       *openFile
		content string
	}
	var work []pending
	for _, f := range s.files {
		if f.dirty {
			work = append(work, pending{f: f, content: f.content})
		}
	}
	s.mu.Unlock()

	var firstErr error
	for _, p := range work {
		if err := s.saveFn(p.f.path, p.content); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.mu.Lock()
		if p.f.content == p.content {
			p.f.dirty = false
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.svErr = firstErr
	s.mu.Unlock()
}

func (s *Session) find(filePath string) *openFile {
	for _, f := range s.files {
		if f.path == filePath {
			return f
		}
	}
	return nil
}

func (s *Session) anyDirtyLocked() bool {
	for _, f := range s.files {
		if f.dirty {
			return true
		}
	}
	return false
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func snapshot(f *openFile) OpenFile {
	return OpenFile{
		Path:    f.path,
		Name:    path.Base(f.path),
		Content: f.content,
		Dirty:   f.dirty,
	}
}
