package startup

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/display"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/pinctrl"
)

const SplashStep = 2 * time.Second

// Splash clears the outputs and display, then shows the boot banner. sleep
// is time.Sleep outside of tests.
func Splash(panel *display.Panel, bank *device.Bank, sleep func(time.Duration)) {
	bank.AllOff()
	panel.Clear()

	panel.Show("BMS Initializing", "")
	sleep(SplashStep)
	panel.Show("System Ready", "")
	sleep(SplashStep)
	panel.Clear()

	log.Info().Msg("Startup splash complete")
}

var (
	readAllPins = pinctrl.ReadAllPins
	readLevel   = pinctrl.ReadLevel
)

// CheckOutputs warns about actuator lines that are already driven high
// before the controller claims them, e.g. after a crash left a relay on. It
// returns the names of the asserted outputs.
func CheckOutputs(outputs map[string]int) []string {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	states, err := readAllPins()
	if err != nil {
		log.Debug().Err(err).Msg("pinctrl get unavailable, falling back to per-pin reads")
	}

	var asserted []string
	for _, name := range names {
		pin := outputs[name]

		var high bool
		if ps, ok := states[pin]; ok {
			high = ps.Asserted()
		} else {
			high, err = readLevel(pin)
			if err != nil {
				log.Warn().Err(err).Str("output", name).Int("pin", pin).Msg("Could not read startup level")
				continue
			}
		}

		if high {
			log.Warn().Str("output", name).Int("pin", pin).Msg("Output asserted at startup; it will be driven low")
			asserted = append(asserted, name)
		}
	}
	return asserted
}

// InstallService writes the systemd unit that runs the controller binary at
// boot.
func InstallService(path, binary, configFile string) error {
	unit := fmt.Sprintf(`[Unit]
Description=Building management controller
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s -config-file %s
EnvironmentFile=-/etc/default/bms-controller
KillSignal=SIGTERM
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`, binary, configFile)

	if err := os.WriteFile(path, []byte(unit), 0644); err != nil {
		return fmt.Errorf("failed to write service unit: %w", err)
	}
	log.Info().Str("path", path).Msg("Installed systemd unit")
	return nil
}
