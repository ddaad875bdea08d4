// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command hexmap inspects and maintains the local hexagonal map cache.
//
// Usage:
//
//	hexmap coord parse 1,0:1,2
//	hexmap coord children 1,0:1
//	hexmap cache dump --dir ~/.hexmap/cache --prefix 1,0:1
//	hexmap cache invalidate --dir ~/.hexmap/cache --prefix 1,0:1
//	hexmap cache invalidate --dir ~/.hexmap/cache --all
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "hexmap",
	Short:         "Inspect and maintain the local hexagonal map cache",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(coordCmd)
	rootCmd.AddCommand(cacheCmd)
}
