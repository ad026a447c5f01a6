//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package diskfilter

import (
	"github.com/heketi/diskfilter/pkg/disk"
	df "github.com/heketi/diskfilter/pkg/diskfilter"
	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/mdraid"
	"github.com/heketi/diskfilter/pkg/recovery"
)

const (
	FileSourceName   = "hd"
	CryptoSourceName = "crypto"
)

// NewEngine returns a registry over devices with the md detector and
// the parity recoverers in place. Encrypted devices are served by a
// source of their own so that crypto checks can tell them apart.
func NewEngine(devices []api.DeviceConfig) *df.Registry {
	layer := disk.NewDefaultLayer()
	files := disk.NewFileSource(FileSourceName, disk.DeviceTypeFile)
	crypto := disk.NewFileSource(CryptoSourceName, disk.DeviceTypeCrypto)

	for _, dev := range devices {
		fd := disk.FileDevice{
			Name:      dev.Name,
			Path:      dev.Path,
			Removable: dev.Removable,
		}
		if dev.Encrypted {
			crypto.Add(fd)
		} else {
			files.Add(fd)
		}
	}
	layer.Register(crypto)
	layer.Register(files)

	r := df.NewRegistry(layer)
	mdraid.Register(r)
	recovery.Register(r)
	return r
}
