package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/nana-tokenizers/nana/envconfig"
)

// LoadDotEnv loads environment variables from .env in the working directory
// and then from .env in the nana home directory, so NANA_HOME may itself be
// set by the local file. Missing files are skipped and variables that are
// already set are never overridden.
func LoadDotEnv() error {
	if err := loadDotEnvFile(".env"); err != nil {
		return err
	}

	// resolve NANA_HOME again now that the local file is loaded
	envconfig.LoadConfig()
	return loadDotEnvFile(filepath.Join(envconfig.Home, ".env"))
}

func loadDotEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to check if %s exists: %w", path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("could not load %s: %w", path, err)
	}

	return nil
}
