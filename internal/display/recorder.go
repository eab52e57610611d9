package display

import (
	"fmt"
	"strings"
	"sync"
)

// Recorder is a Display test double that keeps the screen contents and a
// log of every operation.
type Recorder struct {
	mu     sync.Mutex
	screen [Rows]string
	Ops    []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.screen = [Rows]string{}
	r.Ops = append(r.Ops, "clear")
	return nil
}

func (r *Recorder) Write(col, row int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if row < 0 || row >= Rows {
		return fmt.Errorf("row %d out of range", row)
	}
	line := []rune(r.screen[row])
	for len(line) < col+len([]rune(text)) {
		line = append(line, ' ')
	}
	copy(line[col:], []rune(text))
	r.screen[row] = string(line)
	r.Ops = append(r.Ops, fmt.Sprintf("write %d,%d %q", col, row, text))
	return nil
}

// Screen returns both rows with trailing padding removed.
func (r *Recorder) Screen() (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.TrimRight(r.screen[0], " "), strings.TrimRight(r.screen[1], " ")
}

func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, o := range r.Ops {
		if strings.HasPrefix(o, op) {
			n++
		}
	}
	return n
}
