// Package config provides the configuration system for blockedit.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← BLOCKEDIT_SECTION_SETTING_NAME
//	├─────────────────────────────┤
//	│  2. Config File             │  ← blockedit.toml (with include)
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Environment values are typed by the default of the setting they
// override, so BLOCKEDIT_EDITOR_HISTORY_SIZE=50 sets an int and
// BLOCKEDIT_KEYMAP_WATCH=true a bool. Durations are written as Go duration
// strings ("750ms") in both the file and the environment.
//
// # Sub-packages
//
//   - loader: TOML file loading, include processing, environment scanning
//
// # Usage
//
//	cfg, err := config.Load(config.WithFile("blockedit.toml"))
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
package config
