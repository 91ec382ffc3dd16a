// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wneessen/geomarker/internal/config"
	"github.com/wneessen/geomarker/internal/permission"
)

var permissionCmd = &cobra.Command{
	Use:   "permission",
	Short: "Manage the location permission",
	Long: `Grants, revokes or shows the stored location permission. A change is picked up
the next time the map returns to the foreground.`,
}

var permissionGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Allow access to the device location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, _, err := permissionStore(cmd)
		if err != nil {
			return err
		}
		if err = store.Grant(); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "location permission granted")
		return err
	},
}

var permissionRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Deny access to the device location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, _, err := permissionStore(cmd)
		if err != nil {
			return err
		}
		if err = store.Revoke(); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "location permission revoked")
		return err
	},
}

var permissionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored location permission",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, mode, err := permissionStore(cmd)
		if err != nil {
			return err
		}
		state, err := store.State()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "mode: %s\nstate: %s\nfile: %s\n", mode, state, store.Path())
		return err
	},
}

func init() {
	permissionCmd.AddCommand(permissionGrantCmd, permissionRevokeCmd, permissionStatusCmd)
	rootCmd.AddCommand(permissionCmd)
}

func permissionStore(cmd *cobra.Command) (*permission.FileStore, string, error) {
	conf, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	mode := conf.Permission.Mode
	if mode != config.PermissionPrompt {
		mode += " (stored state is ignored)"
	}
	return permission.NewFileStore(conf.Permission.File, nil), mode, nil
}
