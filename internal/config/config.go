/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
// Package config loads gdeps settings from an optional config file,
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bennypowers.dev/gdeps/source"
	"bennypowers.dev/gdeps/treescan"
)

// configName is the config file name without extension.
const configName = ".gdeps"

// envPrefix is the environment variable prefix for gdeps settings.
const envPrefix = "GDEPS"

// Load points v at the config file and environment. When configPath is
// empty, .gdeps.{yaml,json,toml} is looked up in the working directory;
// a missing file is not an error. Keys match flag names, so the
// environment variable for --log-level is GDEPS_LOG_LEVEL.
func Load(v *viper.Viper, configPath string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// BindFlags binds the flags of the command being run. Binding only the
// running command keeps flags that share a name across commands apart.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

// ScanOptions reads the tree-scanning settings shared by every command
// that scans sources: exclude, jobs and scanner.
func ScanOptions(v *viper.Viper) (treescan.Options, error) {
	parse, err := source.ParserByName(v.GetString("scanner"))
	if err != nil {
		return treescan.Options{}, err
	}
	return treescan.Options{
		Exclude:  v.GetStringSlice("exclude"),
		Parallel: v.GetInt("jobs"),
		Parse:    parse,
	}, nil
}

// AddScanFlags registers the flags ScanOptions reads.
func AddScanFlags(flags *pflag.FlagSet) {
	flags.StringSlice("exclude", nil, "Glob patterns, relative to each root, for files to skip (e.g. **/*_test.js)")
	flags.String("scanner", "regexp", "Declaration scanner (regexp, tree-sitter)")
	flags.IntP("jobs", "j", 0, "Number of parallel workers (default: number of CPUs)")
}
