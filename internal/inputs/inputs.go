// Package inputs turns raw button edges into handler calls. Each button gets
// its own goroutine, so a slow handler (the door dwell) never delays the
// others.
package inputs

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
)

// Handler runs one button press. ctx is cancelled at shutdown.
type Handler func(ctx context.Context)

type route struct {
	presses chan struct{}
	handle  Handler
}

type Router struct {
	mu     sync.RWMutex
	routes map[model.Button]*route
}

func NewRouter() *Router {
	return &Router{routes: map[model.Button]*route{}}
}

// Handle registers h for b. queue is how many presses may wait while h is
// busy; with 0 a press is only accepted when the handler is idle.
func (r *Router) Handle(b model.Button, queue int, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[b] = &route{presses: make(chan struct{}, queue), handle: h}
}

// Press delivers a press without blocking. It reports false when the press
// was dropped, either because nothing handles b or the route is busy.
func (r *Router) Press(b model.Button) bool {
	r.mu.RLock()
	rt, ok := r.routes[b]
	r.mu.RUnlock()

	if !ok {
		log.Warn().Str("button", string(b)).Msg("No handler for button")
		return false
	}

	select {
	case rt.presses <- struct{}{}:
		return true
	default:
		log.Debug().Str("button", string(b)).Msg("Button busy, press dropped")
		return false
	}
}

// Run serves every registered route until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	r.mu.RLock()
	var wg sync.WaitGroup
	for b, rt := range r.routes {
		wg.Add(1)
		go func(b model.Button, rt *route) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-rt.presses:
					log.Debug().Str("button", string(b)).Msg("Button pressed")
					rt.handle(ctx)
				}
			}
		}(b, rt)
	}
	r.mu.RUnlock()

	log.Info().Msg("Button router started")
	wg.Wait()
	log.Info().Msg("Button router stopped")
	return nil
}
