package gpio

import "sync"

// FakeOutput records every level written to it.
type FakeOutput struct {
	mu      sync.Mutex
	level   bool
	History []bool

	// SetError, if set, is returned by Set and the level is left unchanged.
	SetError error
}

func (f *FakeOutput) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SetError != nil {
		return f.SetError
	}
	f.level = on
	f.History = append(f.History, on)
	return nil
}

func (f *FakeOutput) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// Writes returns a copy of every level written so far.
func (f *FakeOutput) Writes() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.History...)
}

// FakeInput reports whatever level the test last set.
type FakeInput struct {
	mu    sync.Mutex
	level bool
	reads int
}

func (f *FakeInput) Set(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = active
}

func (f *FakeInput) Active() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.level, nil
}

func (f *FakeInput) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}
