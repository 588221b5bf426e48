package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is prepended to every variable name read by the Env helpers.
const EnvPrefix = "SARGAN_"

// Env returns the SARGAN_<key> env var, or def if unset or blank.
func Env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
		return v
	}
	return def
}

// EnvInt returns SARGAN_<key> parsed as an int.
// Falls back to def if unset or malformed.
func EnvInt(key string, def int) int {
	v, err := strconv.Atoi(Env(key, ""))
	if err != nil {
		return def
	}
	return v
}

// EnvFloat returns SARGAN_<key> parsed as a float64.
func EnvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(Env(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

// EnvBool returns SARGAN_<key> parsed with strconv.ParseBool.
func EnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(Env(key, ""))
	if err != nil {
		return def
	}
	return v
}
