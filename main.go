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

// Command gdeps calculates Closure Library dependencies.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/gdeps/cmd/build"
	"bennypowers.dev/gdeps/cmd/check"
	"bennypowers.dev/gdeps/cmd/deps"
	"bennypowers.dev/gdeps/cmd/graph"
	"bennypowers.dev/gdeps/cmd/inject"
	"bennypowers.dev/gdeps/cmd/version"
	"bennypowers.dev/gdeps/internal/config"
	"bennypowers.dev/gdeps/internal/logging"
)

var (
	cpuprofile     string
	configFile     string
	cpuprofileFile *os.File
	rootCmd        = &cobra.Command{
		Use:   "gdeps",
		Short: "Calculate Closure Library dependencies",
		Long: `gdeps scans JavaScript trees for goog.provide, goog.module and
goog.require declarations and orders sources so every file loads after
the files it requires.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()
			if err := config.Load(v, configFile); err != nil {
				return err
			}
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}

			logger, err := logging.New(v.GetString("log-level"), v.GetString("log-format"), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("could not create CPU profile: %w", err)
				}
				cpuprofileFile = f
				if err := pprof.StartCPUProfile(f); err != nil {
					closeErr := f.Close()
					return errors.Join(
						fmt.Errorf("could not start CPU profile: %w", err),
						closeErr,
					)
				}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofileFile != nil {
				pprof.StopCPUProfile()
				if err := cpuprofileFile.Close(); err != nil {
					return fmt.Errorf("closing CPU profile: %w", err)
				}
			}
			return nil
		},
	}
)

func init() {
	// Root flags (persistent across all commands)
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: .gdeps.yaml in the working directory)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write CPU profile to file")

	// Add commands
	rootCmd.AddCommand(build.Cmd)
	rootCmd.AddCommand(deps.Cmd)
	rootCmd.AddCommand(check.Cmd)
	rootCmd.AddCommand(graph.Cmd)
	rootCmd.AddCommand(inject.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
