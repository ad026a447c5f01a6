//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package cmds

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/heketi/diskfilter/pkg/utils"
)

var scanTemplate = `Added volumes:
{{- range .Added}}
  {{.}}
{{- else}} none
{{- end}}
Scans: {{.Stats.Scans}}
Reads: {{.Stats.Reads}} ({{.Stats.ReadErrors}} failed)
Recoveries: {{.Stats.Recoveries}}
`

var scanCommand = &cobra.Command{
	Use:   "scan",
	Short: "Scans the disks for new volumes",
	Long: "Scans the disks for new volumes, recording the groups found in\n" +
		"the inventory database when one is configured",
	Example: "  $ diskfilter-cli --config disks.yaml scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		resp, err := b.Rescan()
		if err != nil {
			return err
		}
		return printOutput(resp, scanTemplate)
	},
}

var inventoryCommand = &cobra.Command{
	Use:   "inventory",
	Short: "Shows the volume groups and their members",
	Long:  "Shows the volume groups and their members",
	Example: `  $ diskfilter-cli inventory
  $ diskfilter-cli --server http://localhost:8080 inventory --stored`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		inv, err := b.Inventory(stored)
		if err != nil {
			return err
		}
		return printOutput(inv, groupTemplate)
	},
}

var cryptoCheckCommand = &cobra.Command{
	Use:   "cryptocheck [--quiet] (name)",
	Short: "Checks that every member of the volume group is encrypted",
	Long: "Checks that every member of the volume group is encrypted. The\n" +
		"name may be given within parentheses",
	Example: "  $ diskfilter-cli cryptocheck --quiet '(md/root)'",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("Volume name missing")
		}
		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return err
		}

		name := args[0]
		if n, ok := utils.ParenthesizedName(name); ok {
			name = n
		}

		b, err := newBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		check, err := b.CryptoCheck(name)
		if err != nil {
			return err
		}
		if !quiet {
			if err := printOutput(check, "{{.Message}}"); err != nil {
				return err
			}
		}
		if !check.Encrypted {
			return errors.New(name + " is not encrypted")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(scanCommand)
	scanCommand.SilenceUsage = true

	RootCmd.AddCommand(inventoryCommand)
	inventoryCommand.Flags().BoolVar(&stored, "stored", false,
		"\n\tShow the groups recorded by the last scan")
	inventoryCommand.SilenceUsage = true

	RootCmd.AddCommand(cryptoCheckCommand)
	cryptoCheckCommand.Flags().Bool("quiet", false,
		"\n\tOnly report the result through the exit status")
	cryptoCheckCommand.SilenceUsage = true
}
