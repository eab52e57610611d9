package shutdown

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/display"
)

var once sync.Once

// Cleanup deasserts every output and clears the display. Only the first call
// does anything; call it after every loop has stopped.
func Cleanup(bank *device.Bank, panel *display.Panel) {
	once.Do(func() {
		bank.AllOff()
		panel.Clear()
		log.Info().Msg("Outputs deasserted and display cleared")
	})
}

// CleanupWithError logs err and then cleans up.
func CleanupWithError(bank *device.Bank, panel *display.Panel, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Cleanup(bank, panel)
}
