// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no --config flag
// is given.
const EnvVar = "ECSFS_CONFIG"

// Config holds the settings shared by every command. Command-line flags
// take precedence over the values loaded here.
type Config struct {
	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"log_level"`

	// LogFile receives the log records. Empty disables logging.
	LogFile string `yaml:"log_file"`

	Snapshot SnapshotConfig `yaml:"snapshot"`

	Mount MountConfig `yaml:"mount"`
}

type SnapshotConfig struct {
	// Compression is the codec of new snapshots: zstd, lz4 or none.
	Compression string `yaml:"compression"`
}

type MountConfig struct {
	// Mountpoint is used by mount when no directory is given.
	Mountpoint string `yaml:"mountpoint"`
}

func Default() *Config {
	return &Config{
		LogLevel: "INFO",
		Snapshot: SnapshotConfig{
			Compression: "zstd",
		},
	}
}

// Load reads the file at path or, when path is empty, the file named by
// ECSFS_CONFIG. With neither set the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML configuration file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	switch c.Snapshot.Compression {
	case "zstd", "lz4", "none":
	default:
		return fmt.Errorf("unsupported snapshot compression %q", c.Snapshot.Compression)
	}
	return nil
}
