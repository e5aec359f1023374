package config

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/resload/internal/cli/output"
)

// Validate checks values that do not depend on the filesystem.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port out of range: %d", c.Serve.Port)
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	return nil
}

// ValidateAssetsDir checks that the asset directory exists.
func (c *Config) ValidateAssetsDir() error {
	info, err := os.Stat(c.AssetsDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("assets directory does not exist: %s\nHint: Create the directory or use --assets-dir to specify a different path", c.AssetsDir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat assets directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("assets path is not a directory: %s", c.AssetsDir)
	}
	return nil
}
