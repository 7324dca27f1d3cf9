// Package config loads, normalizes, and validates docmonitor configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies environment overrides using the
// variable names existing deployments already export (MONITOR_DIR,
// MONITOR_RETRY_MAX, DATABASE_PATH, GEMINI_API_MODEL and friends). A .env
// file in the working directory is loaded first and never overrides
// variables that are already set. Non-empty environment values override the
// file.
//
// Parse configuration once at startup and pass the resulting *Config into
// each component's constructor; nothing else in the repository reads the
// environment.
package config
