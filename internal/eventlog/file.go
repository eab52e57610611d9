package eventlog

import (
	"fmt"
	"os"
	"sync"
)

// FileSink appends one "HH:MM:SS MESSAGE" line per event.
type FileSink struct {
	mu sync.Mutex
	f  *os.File
}

func OpenFile(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return &FileSink{f: f}, nil
}

func (s *FileSink) Record(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintln(s.f, e.Line())
	return err
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
