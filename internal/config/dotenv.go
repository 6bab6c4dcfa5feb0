package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Sources selects where LoadConfig reads configuration from.
type Sources struct {
	// EnvFiles are .env files applied in order. Missing files are skipped.
	// When empty, ".env" in the current directory is read if present.
	EnvFiles []string
	// Override lets the files replace variables already in the environment,
	// with later files winning. Otherwise the environment and then the
	// first file that sets a variable win.
	Override bool
	// Prefix namespaces every variable: "EMBEDGEN" reads EMBEDGEN_PORT.
	Prefix string
}

// LoadDotEnv loads environment variables from a .env file.
// If path is empty, it loads from ".env" in the current directory.
// If the file does not exist, it silently returns nil (not an error).
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(path)
}

// LoadDotEnvFromFiles loads environment variables from multiple .env files.
// Files are processed in order. godotenv.Load does not override existing
// environment variables, so the first file that sets a variable wins.
// Non-existent files are silently skipped.
func LoadDotEnvFromFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

// OverloadDotEnvFromFiles loads environment variables from multiple .env files,
// overwriting any existing values. Files are processed in order, with later
// files overwriting earlier values. Non-existent files are silently skipped.
func OverloadDotEnvFromFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig loads the .env files named by src, then the environment.
func LoadConfig(src Sources) (AppConfig, error) {
	if err := loadEnvFiles(src); err != nil {
		return AppConfig{}, err
	}

	envCfg, err := LoadFromEnvWithPrefix(src.Prefix)
	if err != nil {
		return AppConfig{}, err
	}

	return envCfg.ToAppConfig(), nil
}

func loadEnvFiles(src Sources) error {
	switch {
	case len(src.EnvFiles) == 0:
		return LoadDotEnv("")
	case src.Override:
		return OverloadDotEnvFromFiles(src.EnvFiles...)
	default:
		return LoadDotEnvFromFiles(src.EnvFiles...)
	}
}
