package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/db"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/config"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/doorcontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/environmentcontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/firealarmcontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/hvaccontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/motioncontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/datadog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/display"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/env"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/gpio"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/humidity"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/inputs"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/lcd"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/logging"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/mqtt"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/notifications"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/temperature"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/system/shutdown"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/system/startup"
)

const serviceUnitPath = "/etc/systemd/system/bms-controller.service"

type hardware struct {
	chip    *gpio.Chip
	lcd     *lcd.Device
	heat    gpio.Output
	cool    gpio.Output
	light   gpio.Output
	motion  gpio.Input
	display display.Display
}

func main() {
	cfg := config.Load()
	logFile := logging.Init(cfg.LogLevel, cfg.LogFile)
	defer logFile.Close()
	env.Cfg = &cfg

	if cfg.InstallService {
		installService(cfg)
		return
	}

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Int("setpoint", cfg.DefaultSetpoint).
		Bool("safe_mode", cfg.SafeMode).
		Msg("Starting BMS controller")

	datadog.InitMetrics()
	defer datadog.Close()

	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED: outputs are logged, not driven")
	} else {
		startup.CheckOutputs(map[string]int{
			"heat":  *cfg.GPIO.HeatLED,
			"cool":  *cfg.GPIO.CoolLED,
			"light": *cfg.GPIO.LightLED,
		})
	}

	hw := openHardware(cfg)

	bank := device.NewBank(hw.heat, hw.cool, hw.light)
	panel := display.NewPanel(hw.display)
	st := state.New(cfg.MinSetpoint, cfg.MaxSetpoint, cfg.DefaultSetpoint)

	journal, publisher := openJournal(cfg)
	journal.Start()

	var notifier notifications.Notifier
	var async *notifications.Async
	if n := notifications.Init(); n != nil {
		async = notifications.NewAsync(n, 8)
		notifier = async
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup.Splash(panel, bank, time.Sleep)

	hum := humidity.NewCache(humiditySource(cfg), cfg.HumidityFallback)
	hum.Prime(ctx)

	hvac := hvaccontroller.New(bank, journal, cfg.Hysteresis)
	motion := motioncontroller.New(st, hw.motion, bank, journal, cfg.LightTimeout())
	alarm := firealarmcontroller.New(st, hvac, motion, bank, panel, journal, notifier, cfg.FireThreshold, cfg.FireClearHold())
	door := doorcontroller.New(st, hvac, panel, journal, cfg.DoorDwell())
	environment := environmentcontroller.New(st, temperature.NewSysfsReader(cfg.TempSensorPath), hum, alarm, hvac, panel)

	router := inputs.NewRouter()
	router.Handle(model.ButtonDoor, 0, door.Toggle)
	router.Handle(model.ButtonIncrease, 8, door.IncreaseSetpoint)
	router.Handle(model.ButtonDecrease, 8, door.DecreaseSetpoint)
	bindButtons(cfg, hw.chip, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return motion.Run(gctx, cfg.MotionPoll()) })
	g.Go(func() error { return alarm.RunAlertLoop(gctx, cfg.AlertInterval()) })
	g.Go(func() error { return environment.Run(gctx, cfg.ControlInterval()) })
	g.Go(func() error { return hum.Run(gctx, cfg.HumidityRefresh()) })
	g.Go(func() error { return router.Run(gctx) })

	log.Info().Msg("BMS controller running")
	if err := g.Wait(); err != nil {
		shutdown.CleanupWithError(bank, panel, err, "Control loop failed")
	}
	log.Info().Msg("Shutting down")

	shutdown.Cleanup(bank, panel)

	if publisher != nil {
		if err := publisher.PublishSystem(mqtt.SystemEvent{Timestamp: time.Now(), Event: "SHUTDOWN", Reason: "signal"}); err != nil {
			log.Warn().Err(err).Msg("Failed to publish shutdown event")
		}
	}
	if err := journal.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close event journal")
	}
	if async != nil {
		async.Close()
	}
	closeHardware(hw)

	log.Info().Msg("BMS controller stopped")
}

func installService(cfg config.Config) {
	binary, err := os.Executable()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve executable path")
	}
	if err := startup.InstallService(serviceUnitPath, binary, cfg.ConfigFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to install service")
	}
}

func openHardware(cfg config.Config) hardware {
	hw := hardware{display: display.NewConsole()}

	chip, err := gpio.OpenChip(cfg.GPIOChip)
	switch {
	case err != nil && !cfg.SafeMode:
		log.Fatal().Err(err).Str("chip", cfg.GPIOChip).Msg("Failed to open GPIO chip")
	case err != nil:
		log.Warn().Err(err).Msg("GPIO chip unavailable, motion and buttons disabled")
	default:
		hw.chip = chip
	}

	if cfg.SafeMode {
		hw.heat = gpio.NewLogOutput("heat")
		hw.cool = gpio.NewLogOutput("cool")
		hw.light = gpio.NewLogOutput("light")
	} else {
		hw.heat = mustOutput(chip, "heat", *cfg.GPIO.HeatLED)
		hw.cool = mustOutput(chip, "cool", *cfg.GPIO.CoolLED)
		hw.light = mustOutput(chip, "light", *cfg.GPIO.LightLED)
	}

	hw.motion = gpio.NeverActive{}
	if hw.chip != nil {
		in, err := hw.chip.RequestInput(*cfg.GPIO.MotionSensor)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to claim motion sensor")
		}
		hw.motion = in
	}

	if cfg.LCD.Enabled {
		bus, err := lcd.OpenBus(cfg.LCD.Bus)
		if err != nil {
			log.Warn().Err(err).Int("bus", cfg.LCD.Bus).Msg("I2C bus unavailable, using console display")
			return hw
		}
		dev, err := lcd.New(bus, uint8(cfg.LCD.Address))
		if err != nil {
			log.Warn().Err(err).Msg("LCD unavailable, using console display")
			bus.Close()
			return hw
		}
		hw.lcd, hw.display = dev, dev
	}
	return hw
}

func mustOutput(chip *gpio.Chip, name string, pin int) gpio.Output {
	out, err := chip.RequestOutput(pin)
	if err != nil {
		log.Fatal().Err(err).Str("output", name).Int("pin", pin).Msg("Failed to claim output")
	}
	return out
}

func bindButtons(cfg config.Config, chip *gpio.Chip, router *inputs.Router) {
	if chip == nil {
		return
	}
	for b, pin := range map[model.Button]int{
		model.ButtonIncrease: *cfg.GPIO.IncreaseButton,
		model.ButtonDecrease: *cfg.GPIO.DecreaseButton,
		model.ButtonDoor:     *cfg.GPIO.DoorButton,
	} {
		b := b
		if err := chip.WatchButton(pin, cfg.ButtonDebounce(), func() { router.Press(b) }); err != nil {
			log.Fatal().Err(err).Str("button", string(b)).Msg("Failed to watch button")
		}
	}
	log.Info().Msg("Buttons bound")
}

// closeHardware releases the display and GPIO. The LCD owns its bus.
func closeHardware(hw hardware) {
	if hw.lcd != nil {
		if err := hw.lcd.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close LCD")
		}
	}
	if hw.chip != nil {
		if err := hw.chip.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close GPIO chip")
		}
	}
}

// openJournal builds the event journal with every configured sink. The
// returned publisher is nil when MQTT is not configured.
func openJournal(cfg config.Config) (*eventlog.Journal, mqtt.Publisher) {
	var sinks []eventlog.Sink

	file, err := eventlog.OpenFile(cfg.EventLogFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.EventLogFile).Msg("Failed to open event log")
	}
	sinks = append(sinks, file)

	if cfg.DBPath != "" {
		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.DBPath).Msg("Event database unavailable")
		} else {
			sinks = append(sinks, db.NewEventSink(conn))
		}
	}

	var publisher mqtt.Publisher
	if cfg.MQTTBroker != "" {
		pub, err := mqtt.NewRealPublisher(cfg.MQTTBroker, cfg.MQTTTopic)
		if err != nil {
			log.Error().Err(err).Str("broker", cfg.MQTTBroker).Msg("MQTT unavailable")
		} else {
			publisher = pub
			sinks = append(sinks, mqtt.NewEventSink(pub))
			if err := pub.PublishSystem(mqtt.SystemEvent{Timestamp: time.Now(), Event: "STARTUP"}); err != nil {
				log.Warn().Err(err).Msg("Failed to publish startup event")
			}
		}
	}

	log.Info().
		Str("file", cfg.EventLogFile).
		Int("sinks", len(sinks)).
		Msg("Event journal opened")
	return eventlog.NewJournal(64, sinks...), publisher
}

func humiditySource(cfg config.Config) humidity.Source {
	if cfg.WeatherAPIKey == "" {
		log.Warn().Int("fallback", cfg.HumidityFallback).Msg("WEATHER_API_KEY not set, using fallback humidity")
		return humidity.Static(cfg.HumidityFallback)
	}
	return humidity.NewClient(cfg.HumidityCity, cfg.WeatherAPIKey,
		humidity.WithBaseURL(cfg.HumidityURL),
		humidity.WithTimeout(cfg.HumidityTimeout()),
		humidity.WithFallback(cfg.HumidityFallback),
	)
}
