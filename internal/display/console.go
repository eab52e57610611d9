package display

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Console mirrors the display into the operational log. It is used when no
// LCD is attached.
type Console struct {
	mu   sync.Mutex
	rows [Rows][]rune
}

func NewConsole() *Console {
	c := &Console{}
	c.reset()
	return c
}

func (c *Console) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	log.Debug().Msg("Display cleared")
	return nil
}

func (c *Console) Write(col, row int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if row < 0 || row >= Rows || col < 0 || col >= Columns {
		return fmt.Errorf("position %d,%d outside %dx%d display", col, row, Columns, Rows)
	}
	for i, r := range []rune(text) {
		if col+i >= Columns {
			break
		}
		c.rows[row][col+i] = r
	}

	log.Debug().
		Str("line0", strings.TrimRight(string(c.rows[0]), " ")).
		Str("line1", strings.TrimRight(string(c.rows[1]), " ")).
		Msg("Display updated")
	return nil
}

func (c *Console) reset() {
	for i := range c.rows {
		c.rows[i] = []rune(strings.Repeat(" ", Columns))
	}
}
