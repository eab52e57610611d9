package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/gpio"
)

// GPIO holds BCM pin numbers for every line the controller claims.
type GPIO struct {
	// outputs
	HeatLED  *int `json:"heat_led"`
	CoolLED  *int `json:"cool_led"`
	LightLED *int `json:"light_led"`

	// inputs
	MotionSensor   *int `json:"motion_sensor"`
	IncreaseButton *int `json:"increase_button"`
	DecreaseButton *int `json:"decrease_button"`
	DoorButton     *int `json:"door_button"`
}

type LCD struct {
	Enabled bool `json:"enabled"`
	Bus     int  `json:"i2c_bus"`
	Address int  `json:"address"`
}

type Config struct {
	ConfigFile     string        `json:"-"`
	LogLevel       zerolog.Level `json:"-"`
	LogFile        string        `json:"log_file"`
	SafeMode       bool          `json:"safe_mode"`
	InstallService bool          `json:"-"`

	MinSetpoint     int `json:"min_setpoint"`
	MaxSetpoint     int `json:"max_setpoint"`
	DefaultSetpoint int `json:"default_setpoint"`
	Hysteresis      int `json:"hysteresis"`
	FireThreshold   int `json:"fire_threshold"`

	MotionPollMS        int `json:"motion_poll_ms"`
	ControlIntervalMS   int `json:"control_interval_ms"`
	AlertIntervalMS     int `json:"alert_interval_ms"`
	LightTimeoutSeconds int `json:"light_timeout_seconds"`
	DoorDwellMS         int `json:"door_dwell_ms"`
	FireClearHoldMS     int `json:"fire_clear_hold_ms"`
	ButtonDebounceMS    int `json:"button_debounce_ms"`

	HumidityCity           string `json:"humidity_city"`
	HumidityURL            string `json:"humidity_url"`
	HumidityTimeoutSeconds int    `json:"humidity_timeout_seconds"`
	HumidityFallback       int    `json:"humidity_fallback"`
	HumidityRefreshMinutes int    `json:"humidity_refresh_minutes"`
	WeatherAPIKey          string `json:"-"`

	GPIOChip       string `json:"gpio_chip"`
	TempSensorPath string `json:"temp_sensor_path"`
	GPIO           GPIO   `json:"gpio"`
	LCD            LCD    `json:"lcd"`

	EventLogFile string `json:"event_log_file"`
	DBPath       string `json:"db_path"`

	MQTTBroker string `json:"mqtt_broker"`
	MQTTTopic  string `json:"mqtt_topic"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	NtfyTopic string `json:"ntfy_topic"`
	NtfyURL   string `json:"ntfy_url"`
}

func intPtr(v int) *int {
	return &v
}

// Default returns the reference board's configuration.
func Default() Config {
	return Config{
		ConfigFile: "config.json",
		LogLevel:   zerolog.InfoLevel,
		LogFile:    "/var/log/bms-controller.log",

		MinSetpoint:     65,
		MaxSetpoint:     99,
		DefaultSetpoint: 72,
		Hysteresis:      3,
		FireThreshold:   90,

		MotionPollMS:        200,
		ControlIntervalMS:   1000,
		AlertIntervalMS:     1000,
		LightTimeoutSeconds: 10,
		DoorDwellMS:         3000,
		FireClearHoldMS:     3000,
		ButtonDebounceMS:    int(gpio.DefaultDebounce / time.Millisecond),

		HumidityCity:           "Irvine",
		HumidityURL:            "http://api.openweathermap.org/data/2.5/weather",
		HumidityTimeoutSeconds: 5,
		HumidityFallback:       55,

		GPIOChip:       "gpiochip0",
		TempSensorPath: "/sys/bus/iio/devices/iio:device0/in_temp_input",
		GPIO: GPIO{
			HeatLED:        intPtr(gpio.PinHeat),
			CoolLED:        intPtr(gpio.PinCool),
			LightLED:       intPtr(gpio.PinLight),
			MotionSensor:   intPtr(gpio.PinMotion),
			IncreaseButton: intPtr(gpio.PinIncrease),
			DecreaseButton: intPtr(gpio.PinDecrease),
			DoorButton:     intPtr(gpio.PinDoor),
		},
		LCD: LCD{Enabled: true, Bus: 1, Address: 0x27},

		EventLogFile: "log.txt",
		MQTTTopic:    "bms",

		DDAgentAddr: "127.0.0.1:8125",
		DDNamespace: "bms.",

		NtfyURL: "https://ntfy.sh",
	}
}

func Load() Config {
	return LoadArgs(flag.CommandLine, os.Args[1:])
}

// LoadArgs parses args with flags, overlays the JSON config file (if present)
// on the defaults and validates the result. Misconfiguration panics.
func LoadArgs(flags *flag.FlagSet, args []string) Config {
	cfg := Default()
	var logLevel string

	flags.StringVar(&cfg.ConfigFile, "config-file", cfg.ConfigFile, "Path to controller config file")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Operational log file (empty for stderr only)")
	flags.BoolVar(&cfg.SafeMode, "safe-mode", false, "Log output changes instead of driving GPIO")
	flags.BoolVar(&cfg.InstallService, "install-service", false, "Install the systemd unit and exit")
	if err := flags.Parse(args); err != nil {
		panic("Failed to parse flags: " + err.Error())
	}

	cfg.LogLevel = parseLogLevel(logLevel)

	// flags win over the file
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	logFile, safeMode := cfg.LogFile, cfg.SafeMode

	if err := cfg.overlayFile(); err != nil {
		panic("Config error: " + err.Error())
	}
	if set["log-file"] {
		cfg.LogFile = logFile
	}
	if set["safe-mode"] {
		cfg.SafeMode = safeMode
	}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")

	cfg.validate()
	return cfg
}

func (cfg *Config) overlayFile() error {
	file, err := os.Open(cfg.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) validate() {
	var (
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
		problems      []string
	)

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("json")

		if field.IsNil() {
			missingFields = append(missingFields, "gpio."+fieldName)
			continue
		}

		pin := field.Elem().Int()
		if other, exists := usedPins[int(pin)]; exists {
			conflicts = append(conflicts, fmt.Sprintf("gpio.%s and gpio.%s both use pin %d", fieldName, other, pin))
		} else {
			usedPins[int(pin)] = fieldName
		}
	}

	if len(missingFields) > 0 {
		panic("Missing required GPIO config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}

	if cfg.MinSetpoint >= cfg.MaxSetpoint {
		problems = append(problems, fmt.Sprintf("min_setpoint %d must be below max_setpoint %d", cfg.MinSetpoint, cfg.MaxSetpoint))
	}
	if cfg.DefaultSetpoint < cfg.MinSetpoint || cfg.DefaultSetpoint > cfg.MaxSetpoint {
		problems = append(problems, fmt.Sprintf("default_setpoint %d outside [%d, %d]", cfg.DefaultSetpoint, cfg.MinSetpoint, cfg.MaxSetpoint))
	}
	if cfg.Hysteresis < 0 {
		problems = append(problems, "hysteresis must not be negative")
	}
	if cfg.HumidityFallback < 0 || cfg.HumidityFallback > 100 {
		problems = append(problems, fmt.Sprintf("humidity_fallback %d outside [0, 100]", cfg.HumidityFallback))
	}
	for name, ms := range map[string]int{
		"motion_poll_ms":           cfg.MotionPollMS,
		"control_interval_ms":      cfg.ControlIntervalMS,
		"alert_interval_ms":        cfg.AlertIntervalMS,
		"light_timeout_seconds":    cfg.LightTimeoutSeconds,
		"humidity_timeout_seconds": cfg.HumidityTimeoutSeconds,
	} {
		if ms <= 0 {
			problems = append(problems, name+" must be positive")
		}
	}
	if cfg.DoorDwellMS < 0 || cfg.FireClearHoldMS < 0 || cfg.ButtonDebounceMS < 0 || cfg.HumidityRefreshMinutes < 0 {
		problems = append(problems, "durations must not be negative")
	}

	if len(problems) > 0 {
		panic("Invalid config: " + strings.Join(problems, "; "))
	}
}

func (cfg Config) MotionPoll() time.Duration {
	return time.Duration(cfg.MotionPollMS) * time.Millisecond
}

func (cfg Config) ControlInterval() time.Duration {
	return time.Duration(cfg.ControlIntervalMS) * time.Millisecond
}

func (cfg Config) AlertInterval() time.Duration {
	return time.Duration(cfg.AlertIntervalMS) * time.Millisecond
}

func (cfg Config) LightTimeout() time.Duration {
	return time.Duration(cfg.LightTimeoutSeconds) * time.Second
}

func (cfg Config) DoorDwell() time.Duration {
	return time.Duration(cfg.DoorDwellMS) * time.Millisecond
}

func (cfg Config) FireClearHold() time.Duration {
	return time.Duration(cfg.FireClearHoldMS) * time.Millisecond
}

func (cfg Config) ButtonDebounce() time.Duration {
	return time.Duration(cfg.ButtonDebounceMS) * time.Millisecond
}

func (cfg Config) HumidityTimeout() time.Duration {
	return time.Duration(cfg.HumidityTimeoutSeconds) * time.Second
}

func (cfg Config) HumidityRefresh() time.Duration {
	return time.Duration(cfg.HumidityRefreshMinutes) * time.Minute
}
