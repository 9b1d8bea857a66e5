package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFileNames are tried in order next to the configuration file.
var envFileNames = []string{".env", ".env.local"}

// loadEnvFiles loads every existing env file in dir. Variables already set in
// the process environment are not overridden.
func loadEnvFiles(dir string) error {
	found := make([]string, 0, len(envFileNames))
	for _, name := range envFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return errors.New("no .env file found")
	}
	return godotenv.Load(found...)
}
