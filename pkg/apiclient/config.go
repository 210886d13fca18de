package apiclient

import (
	"strings"
	"time"
)

// Config represents the configuration for the commerce backend client
type Config struct {
	// BaseURL is the API root, e.g. https://shop.example.com/api/v1
	BaseURL string

	// Timeout bounds a single request; zero means 30 seconds
	Timeout time.Duration

	// UserAgent is sent on every request when set
	UserAgent string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return ErrInvalidConfig
	}
	if c.Timeout < 0 {
		return ErrInvalidConfig
	}
	return nil
}
