package config

import "github.com/joho/godotenv"

// LoadEnv loads environment variables from a .env file if one exists.
// Callers decide whether a missing file is fatal.
func LoadEnv() error {
	return godotenv.Load()
}
