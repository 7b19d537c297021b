package config

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed default_config.toml
var defaultConfig string

// redacted replaces secrets in encoded output.
const redacted = "********"

// WriteDefault writes the example config to path, creating parent
// directories. The file may hold an API key, so it is private to the user.
func WriteDefault(path string) error {
	return writeAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, defaultConfig)
		return err
	})
}

// Write serializes the config to TOML at path. The existing file, if any,
// is replaced only once the new one is complete.
func (c *Config) Write(path string) error {
	return writeAtomic(path, func(w io.Writer) error {
		return toml.NewEncoder(w).Encode(c)
	})
}

// Encode writes the config as TOML with the TMDB API key and Redis
// password masked.
func (c *Config) Encode(w io.Writer) error {
	out := *c
	if out.TMDB.APIKey != "" {
		out.TMDB.APIKey = redacted
	}
	if out.Redis != nil {
		r := *out.Redis
		if r.Password != "" {
			r.Password = redacted
		}
		out.Redis = &r
	}
	return toml.NewEncoder(w).Encode(out)
}

func writeAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := fill(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := f.Chmod(0o600); err != nil {
		_ = f.Close()
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
