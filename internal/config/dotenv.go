package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotenv loads variables from a .env file without overriding ones
// already set in the process environment.
// Priority:
//  1. ENV_FILE if set (single path)
//  2. .env in the working directory and up to three parents
//
// Skipped when NO_DOTENV=1. DOTENV_OVERLOAD=1 lets the file win.
func LoadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	overload := os.Getenv("DOTENV_OVERLOAD") == "1"
	load := func(path string) {
		if overload {
			_ = godotenv.Overload(path)
		} else {
			_ = godotenv.Load(path)
		}
	}

	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		load(envFile)
		return
	}

	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 4; i++ {
		p := filepath.Join(dir, ".env")
		if _, err := os.Stat(p); err == nil {
			load(p)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
