package config

import (
	"os"
	"path/filepath"
	"time"
)

// GetContextTimeout bounds the work of a single use case call.
func GetContextTimeout() time.Duration {
	v := os.Getenv("CONTEXT_TIMEOUT")
	if v == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

func GetUploadDir() string {
	v := os.Getenv("UPLOAD_DIR")
	if v == "" {
		return "./uploads"
	}
	return v
}

func GetAPIBaseURL() string {
	v := os.Getenv("FAMILYTREE_API_URL")
	if v == "" {
		return "http://localhost:5000/api"
	}
	return v
}

// GetSessionPath is where the CLI keeps the bearer token and profile.
func GetSessionPath() string {
	if v := os.Getenv("FAMILYTREE_SESSION"); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".familytree-session.json"
	}
	return filepath.Join(dir, "familytree", "session.json")
}
