// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/i18n"
	"github.com/wneessen/geomarker/internal/logger"
	"github.com/wneessen/geomarker/internal/service"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve LAT LON",
	Short: "Print the address of a coordinate",
	Long: `Looks up the address of a single coordinate with the configured geocoder.
The coordinate is given as two arguments or as one "LAT,LON" argument. Put -- in
front of negative values.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		coords, err := parseCoordinate(args)
		if err != nil {
			return err
		}
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := logger.New(conf.LogLevel)
		t, err := i18n.New(conf.Locale)
		if err != nil {
			return err
		}
		serv, err := service.New(conf, log, t)
		if err != nil {
			return err
		}

		text, err := serv.Resolve(cmd.Context(), coords)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func parseCoordinate(args []string) (geobus.Coordinate, error) {
	if len(args) == 1 {
		args = strings.Split(args[0], ",")
		if len(args) != 2 {
			return geobus.Coordinate{}, fmt.Errorf("expected LAT,LON, got %q", strings.Join(args, ","))
		}
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("invalid latitude %q: %w", args[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("invalid longitude %q: %w", args[1], err)
	}
	return geobus.NewCoordinate(lat, lon)
}
