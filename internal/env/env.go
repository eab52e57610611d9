package env

import (
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/config"
)

// Cfg is the process-wide configuration, set once in main before any
// goroutine starts.
var Cfg *config.Config
