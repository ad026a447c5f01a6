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
	"sort"

	"github.com/spf13/cobra"

	"github.com/heketi/diskfilter/pkg/diskfilter/api"
)

var (
	catOffset uint64
	catLength uint64
	stored    bool
)

var volumeListCommand = &cobra.Command{
	Use:   "list",
	Short: "Lists the assembled volumes",
	Long:  "Lists the assembled volumes",
	Example: `  $ diskfilter-cli list
  $ diskfilter-cli --config disks.yaml list --stored`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		var names []string
		if stored {
			inv, err := b.Inventory(true)
			if err != nil {
				return err
			}
			for _, v := range inv.Volumes() {
				names = append(names, v.Name)
			}
		} else {
			list, err := b.VolumeList()
			if err != nil {
				return err
			}
			names = list.Volumes
		}
		sort.Strings(names)

		if options.Output != "table" {
			return printOutput(api.VolumeListResponse{Volumes: names}, "")
		}
		return printOutput(names, "{{range .}}{{.}}\n{{end}}")
	},
}

var volumeInfoCommand = &cobra.Command{
	Use:     "info [name]",
	Short:   "Retreives information about the volume",
	Long:    "Retreives information about the volume",
	Example: "  $ diskfilter-cli info md/root",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return errors.New("Volume name missing")
		}

		b, err := newBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		info, err := b.VolumeInfo(args[0])
		if err != nil {
			return err
		}
		return printOutput(info, volumeInfoTemplate)
	},
}

var volumeMembersCommand = &cobra.Command{
	Use:     "members [name]",
	Short:   "Lists the disks backing the volume",
	Long:    "Lists the disks backing the volume",
	Example: "  $ diskfilter-cli members md/root",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return errors.New("Volume name missing")
		}

		b, err := newBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		info, err := b.VolumeInfo(args[0])
		if err != nil {
			return err
		}
		return printOutput(info.Members, "{{range .}}{{member .}}\n{{end}}")
	},
}

var volumeCatCommand = &cobra.Command{
	Use:   "cat [name]",
	Short: "Writes the content of the volume to stdout",
	Long: "Writes the content of the volume to stdout, starting at sector\n" +
		"--offset. All sectors up to the end of the volume are written\n" +
		"when --length is 0",
	Example: "  $ diskfilter-cli cat md/root --offset 2048 --length 8 | hexdump -C",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return errors.New("Volume name missing")
		}
		name := args[0]

		b, err := newBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		length := catLength
		if length == 0 {
			info, err := b.VolumeInfo(name)
			if err != nil {
				return err
			}
			if catOffset > info.Size {
				return errors.New("offset is past the end of the volume")
			}
			length = info.Size - catOffset
		}

		for sector := catOffset; length > 0; {
			n := length
			if n > api.MaxReadSectors {
				n = api.MaxReadSectors
			}
			data, err := b.VolumeRead(name, sector, n)
			if err != nil {
				return err
			}
			if _, err := stdout.Write(data); err != nil {
				return err
			}
			sector += n
			length -= n
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(volumeListCommand)
	volumeListCommand.Flags().BoolVar(&stored, "stored", false,
		"\n\tList the volumes recorded by the last scan in the"+
			"\n\tinventory database")
	volumeListCommand.SilenceUsage = true

	RootCmd.AddCommand(volumeInfoCommand)
	volumeInfoCommand.SilenceUsage = true

	RootCmd.AddCommand(volumeMembersCommand)
	volumeMembersCommand.SilenceUsage = true

	RootCmd.AddCommand(volumeCatCommand)
	volumeCatCommand.Flags().Uint64Var(&catOffset, "offset", 0,
		"\n\tFirst sector to write")
	volumeCatCommand.Flags().Uint64Var(&catLength, "length", 0,
		"\n\tNumber of sectors to write, 0 up to the end of the volume")
	volumeCatCommand.SilenceUsage = true
}
