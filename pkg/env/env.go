// Package env reads typed configuration overrides from environment variables.
//
// Every reader leaves dest untouched when key is empty or the variable is
// unset, so config structs can apply defaults first and overrides second.
// Malformed values return an error naming the variable.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Lookup returns the value of key when key is non-empty and the variable is
// set to a non-empty string.
func Lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	v := os.Getenv(key)
	return v, v != ""
}

// String overrides dest with the raw value of key.
func String(key string, dest *string) error {
	if v, ok := Lookup(key); ok {
		*dest = v
	}
	return nil
}

// Int overrides dest with the base-10 integer value of key.
func Int(key string, dest *int) error {
	return parse(key, dest, strconv.Atoi)
}

// Int32 overrides dest with the 32-bit integer value of key.
func Int32(key string, dest *int32) error {
	return parse(key, dest, func(s string) (int32, error) {
		n, err := strconv.ParseInt(s, 10, 32)
		return int32(n), err
	})
}

// Float overrides dest with the floating point value of key.
func Float(key string, dest *float64) error {
	return parse(key, dest, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// Bool overrides dest with the boolean value of key.
func Bool(key string, dest *bool) error {
	return parse(key, dest, strconv.ParseBool)
}

// Duration validates key as a Go duration string and stores it unparsed, the
// form config structs keep for TOML round-tripping.
func Duration(key string, dest *string) error {
	return parse(key, dest, func(s string) (string, error) {
		_, err := time.ParseDuration(s)
		return s, err
	})
}

// List overrides dest with the comma-separated values of key. Entries are
// trimmed and empty entries dropped.
func List(key string, dest *[]string) error {
	v, ok := Lookup(key)
	if !ok {
		return nil
	}

	items := make([]string, 0)
	for item := range strings.SplitSeq(v, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	*dest = items
	return nil
}

func parse[T any](key string, dest *T, fn func(string) (T, error)) error {
	v, ok := Lookup(key)
	if !ok {
		return nil
	}

	parsed, err := fn(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
