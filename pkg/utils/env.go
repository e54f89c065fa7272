package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadConfig reads the .env file from the given path if present.
// Missing files are not an error; environment variables always win.
func LoadConfig(path string) {
	envFile := filepath.Join(path, ".env")
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logrus.Warnf("[CONFIG] Failed to load %s: %v", envFile, err)
	}
}

// CreateFolder ensures every given directory exists.
func CreateFolder(folders ...string) error {
	for _, folder := range folders {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return err
		}
	}
	return nil
}

// WorkerID returns a stable identity for the current worker replica.
// Used as the lock owner for distributed exec locks.
func WorkerID(override string) string {
	if override != "" {
		return override
	}
	hostname, err := os.Hostname()
	if err == nil && hostname != "" {
		return "postflow-" + hostname
	}
	return "postflow-worker"
}
