// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hexframe/hexmap/services/mapcache/coord"
	"github.com/hexframe/hexmap/services/mapcache/region"
)

var (
	cacheDir    string
	cachePrefix string
	cacheAll    bool
)

var coordCmd = &cobra.Command{
	Use:   "coord",
	Short: "Coordinate system helpers",
}

var coordParseCmd = &cobra.Command{
	Use:   "parse <coordinate-id>",
	Short: "Decode a coordinate-id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coord.Parse(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("owner:  %d\n", c.OwnerID)
		fmt.Printf("group:  %d\n", c.GroupID)
		fmt.Printf("depth:  %d\n", c.Depth())
		fmt.Printf("path:   %v\n", c.Path)
		if parent, ok := coord.ParentOf(c); ok {
			fmt.Printf("parent: %s\n", parent.ID())
		} else {
			fmt.Println("parent: (root tile)")
		}
		return nil
	},
}

var coordChildrenCmd = &cobra.Command{
	Use:   "children <coordinate-id>",
	Short: "List the six primary children plus composition slots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := coord.Parse(args[0])
		if err != nil {
			return err
		}
		names := []string{"NW", "NE", "E", "SE", "SW", "W"}
		for i, child := range coord.ChildCoords(c) {
			fmt.Printf("%-3s %s\n", names[i], child.ID())
		}
		fmt.Printf("C   %s\n", coord.CompositionContainerOf(c).ID())
		for i, child := range coord.ComposedChildrenOf(c) {
			fmt.Printf("c%-2s %s\n", names[i], child.ID())
		}
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Local tile cache maintenance",
}

var cacheDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "List cached tiles under a coordinate-prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openCache()
		if err != nil {
			return err
		}
		defer cache.Close()

		records, err := cache.LoadPrefix(cachePrefix)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Printf("%-24s db=%-8d depth=%-2d %s\n", r.CoordID(), r.DBID, r.Depth, r.Title)
		}
		fmt.Printf("%d tiles\n", len(records))
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop cached tiles by coordinate-prefix, or everything",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheAll && cachePrefix == "" {
			return fmt.Errorf("either --prefix or --all is required")
		}
		cache, err := openCache()
		if err != nil {
			return err
		}
		defer cache.Close()

		if cacheAll {
			return cache.InvalidateAll(cmd.Context())
		}
		return cache.InvalidateRegion(cmd.Context(), cachePrefix)
	},
}

func openCache() (*region.BadgerCache, error) {
	if cacheDir == "" {
		return nil, fmt.Errorf("--dir is required")
	}
	return region.OpenCache(region.CacheConfig{Path: cacheDir})
}

func init() {
	coordCmd.AddCommand(coordParseCmd)
	coordCmd.AddCommand(coordChildrenCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheDir, "dir", "", "cache directory")
	cacheDumpCmd.Flags().StringVar(&cachePrefix, "prefix", "", "coordinate-prefix filter (empty = all)")
	cacheInvalidateCmd.Flags().StringVar(&cachePrefix, "prefix", "", "coordinate-prefix to drop")
	cacheInvalidateCmd.Flags().BoolVar(&cacheAll, "all", false, "drop the whole cache")
	cacheCmd.AddCommand(cacheDumpCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
}
