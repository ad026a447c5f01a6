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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	DISKFILTER_CLI_VERSION = "(dev)"
	stderr                 io.Writer
	stdout                 io.Writer
	options                Options
	version                bool
)

// Main arguments
type Options struct {
	Url    string
	Key    string
	User   string
	Config string
	Disks  []string
	Output string
}

var RootCmd = &cobra.Command{
	Use:   "diskfilter-cli",
	Short: "Command line program for diskfilter volumes",
	Long: "Command line program to assemble RAID volumes from disks and images,\n" +
		"either in process or through a diskfilter server",
	Example: `  $ diskfilter-cli --disk hd0=/var/lib/images/hd0.img \
      --disk hd1=/var/lib/images/hd1.img list
  $ diskfilter-cli --server http://localhost:8080 info md/root`,
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			fmt.Fprintf(stdout, "diskfilter-cli %v\n", DISKFILTER_CLI_VERSION)
		} else {
			cmd.Usage()
		}
	},
}

func NewDiskfilterCli(cliVersion string, mstderr io.Writer, mstdout io.Writer) *cobra.Command {
	stderr = mstderr
	stdout = mstdout
	DISKFILTER_CLI_VERSION = cliVersion
	RootCmd.SetOut(mstdout)
	RootCmd.SetErr(mstderr)
	return RootCmd
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVarP(&options.Url, "server", "s", "",
		"\n\tDiskfilter server. Can also be set using the"+
			"\n\tenvironment variable DISKFILTER_CLI_SERVER."+
			"\n\tDisks are assembled in process when not set")
	RootCmd.PersistentFlags().StringVar(&options.Key, "secret", "",
		"\n\tSecret key for specified user.  Can also be"+
			"\n\tset using the environment variable DISKFILTER_CLI_KEY")
	RootCmd.PersistentFlags().StringVar(&options.User, "user", "",
		"\n\tDiskfilter user.  Can also be set using the"+
			"\n\tenvironment variable DISKFILTER_CLI_USER")
	RootCmd.PersistentFlags().StringVarP(&options.Config, "config", "c", "",
		"\n\tYAML or JSON file listing the devices to assemble"+
			"\n\tand the inventory database")
	RootCmd.PersistentFlags().StringArrayVarP(&options.Disks, "disk", "d", nil,
		"\n\tDevice to assemble, as name=path[:crypto][:removable]."+
			"\n\tMay be given more than once")
	RootCmd.PersistentFlags().StringVarP(&options.Output, "output", "o", "table",
		"\n\tOutput format: table, json or yaml")
	RootCmd.Flags().BoolVarP(&version, "version", "v", false,
		"\n\tPrint version")
	RootCmd.SilenceUsage = true
}

func initConfig() {
	if options.Url == "" {
		options.Url = os.Getenv("DISKFILTER_CLI_SERVER")
	}

	if options.Key == "" {
		options.Key = os.Getenv("DISKFILTER_CLI_KEY")
	}

	if options.User == "" {
		options.User = os.Getenv("DISKFILTER_CLI_USER")
	}
}
