package executor

import (
	"io"
	"os"

	"github.com/yuya-takeyama/strict-dedup/pkg/store"
)

// faultStore wraps a real Store and lets individual operations be overridden
// to simulate filesystem failures.
type faultStore struct {
	store.Store

	stat            func(path string) (os.FileInfo, error)
	open            func(path string) (io.ReadCloser, error)
	createExclusive func(path string, perm os.FileMode) (store.File, error)
	remove          func(path string) error
}

func (s *faultStore) Stat(path string) (os.FileInfo, error) {
	if s.stat != nil {
		return s.stat(path)
	}
	return s.Store.Stat(path)
}

func (s *faultStore) Open(path string) (io.ReadCloser, error) {
	if s.open != nil {
		return s.open(path)
	}
	return s.Store.Open(path)
}

func (s *faultStore) CreateExclusive(path string, perm os.FileMode) (store.File, error) {
	if s.createExclusive != nil {
		return s.createExclusive(path, perm)
	}
	return s.Store.CreateExclusive(path, perm)
}

func (s *faultStore) Remove(path string) error {
	if s.remove != nil {
		return s.remove(path)
	}
	return s.Store.Remove(path)
}

// faultFile wraps a destination handle so Sync can fail on demand.
type faultFile struct {
	store.File
	syncErr error
}

func (f *faultFile) Sync() error {
	if f.syncErr != nil {
		return f.syncErr
	}
	return f.File.Sync()
}

// recordingLogger captures per-item actions for assertions.
type recordingLogger struct {
	phases  []string
	actions []string
}

func (l *recordingLogger) PhaseStart(phase string, totalItems int) {
	l.phases = append(l.phases, phase)
}

func (l *recordingLogger) ItemProcessed(phase string, item string, action string) {
	l.actions = append(l.actions, action)
}

func (l *recordingLogger) PhaseComplete(phase string, processedItems int) {}
