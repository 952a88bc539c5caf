package mainconfig

import (
	"github.com/joho/godotenv"

	appconfig "github.com/wolfman30/cityvibes-assistant/internal/config"
)

// Load reads optional dotenv files and then the environment, so both binaries
// resolve settings the same way. Variables already set in the environment win.
// It reports whether any dotenv file was read.
func Load(files ...string) (*appconfig.Config, bool) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	loaded := false
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			loaded = true
		}
	}
	return appconfig.Load(), loaded
}
