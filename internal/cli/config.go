package cli

import "os"

// Config holds the CLI connection settings
type Config struct {
	// ServerURL is the base HTTP URL of the coordinator
	ServerURL string
	PlayerID  string
	Username  string
}

// DefaultConfig returns settings from the environment with fallbacks
func DefaultConfig() Config {
	cfg := Config{
		ServerURL: "http://localhost:8080",
		PlayerID:  "cli-player",
	}
	if v := os.Getenv("PONGCTL_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("PONGCTL_PLAYER"); v != "" {
		cfg.PlayerID = v
	}
	if v := os.Getenv("PONGCTL_USERNAME"); v != "" {
		cfg.Username = v
	}
	if cfg.Username == "" {
		cfg.Username = cfg.PlayerID
	}
	return cfg
}
