package config_test

import (
	"fmt"

	"github.com/wonny/dipscan/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("Default threshold: %.1f%%\n", cfg.Analysis.Threshold)
	fmt.Printf("Redis enabled: %v\n", cfg.Redis.Enabled)
}
