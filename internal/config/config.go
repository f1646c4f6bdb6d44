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
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ostafen/blkpart/internal/env"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the runtime configuration shared by every command.
type Config struct {
	BlockSize   uint32 `mapstructure:"block_size"`
	MediaID     uint32 `mapstructure:"media_id"`
	ReadOnly    bool   `mapstructure:"read_only"`
	Removable   bool   `mapstructure:"removable"`
	Strict      bool   `mapstructure:"strict"`
	DetectOrder string `mapstructure:"detect_order"`
	Mmap        bool   `mapstructure:"mmap"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("block_size", 0)
	v.SetDefault("media_id", 1)
	v.SetDefault("read_only", true)
	v.SetDefault("removable", false)
	v.SetDefault("strict", true)
	v.SetDefault("detect_order", "gpt-first")
	v.SetDefault("mmap", false)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_file", "")
	v.SetDefault("metrics_addr", "")
}

// Load builds the configuration from, in increasing order of precedence,
// defaults, the config file, BLKPART_* environment variables and flags.
// An empty path searches for blkpart.{yaml,toml,json} in the working
// directory and in $HOME/.config/blkpart.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(env.AppName)
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".config", env.AppName))
	}

	v.SetEnvPrefix(env.AppName)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.BlockSize != 0 && cfg.BlockSize&(cfg.BlockSize-1) != 0 {
		return nil, fmt.Errorf("block_size %d is not a power of two", cfg.BlockSize)
	}
	return &cfg, nil
}

// bindFlags binds every flag whose name matches a config key, with dashes
// mapped to underscores.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key := flagKey(f.Name)
		if !isKnownKey(key) {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil && err == nil {
			err = fmt.Errorf("failed to bind flag %q: %w", f.Name, bindErr)
		}
	})
	return err
}

func flagKey(name string) string {
	b := []byte(name)
	for i := range b {
		if b[i] == '-' {
			b[i] = '_'
		}
	}
	return string(b)
}

func isKnownKey(key string) bool {
	switch key {
	case "block_size", "media_id", "read_only", "removable", "strict",
		"detect_order", "mmap", "log_level", "log_file", "metrics_addr":
		return true
	}
	return false
}
