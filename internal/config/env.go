package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func envString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func envInt(key string, target *int) error {
	raw, ok := envString(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*target = value
	return nil
}

func envFloat(key string, target *float64) error {
	raw, ok := envString(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number: %w", key, err)
	}
	*target = value
	return nil
}

func envOptionalFloat(key string, target **float64) error {
	raw, ok := envString(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%s must be a number: %w", key, err)
	}
	*target = &value
	return nil
}

func envOptionalInt(key string, target **int) error {
	raw, ok := envString(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*target = &value
	return nil
}

// envBool accepts the usual truthy and falsy spellings; anything else leaves
// the target untouched.
func envBool(key string, target *bool) {
	raw, ok := envString(key)
	if !ok {
		return
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		*target = true
	case "0", "false", "no", "off":
		*target = false
	}
}

// watchDirsFromEnv reads MONITOR_DIR followed by MONITOR_DIR_1..N, stopping at
// the first gap.
func watchDirsFromEnv() []string {
	var dirs []string
	if value, ok := envString("MONITOR_DIR"); ok {
		dirs = append(dirs, value)
	}
	for i := 1; ; i++ {
		value, ok := envString(fmt.Sprintf("MONITOR_DIR_%d", i))
		if !ok {
			break
		}
		dirs = append(dirs, value)
	}
	return dirs
}

func splitFileTypes(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
