//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package utils

import (
	"encoding/hex"
	"strings"
)

const (
	mdPrefix     = "md/"
	mdUUIDPrefix = "mduuid/"
)

// diskfilterPrefixes are the name prefixes owned by the diskfilter
// device. "md" deliberately has no slash so that md0 style names and
// mduuid/ names are accepted too.
var diskfilterPrefixes = []string{"md", "lvm/", "lvmid/", "ldm/"}

// IsDiskfilterName returns true if the device name belongs to one of
// the namespaces served by the diskfilter device.
func IsDiskfilterName(name string) bool {
	for _, prefix := range diskfilterPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// MDArrayName returns the lookup name of an md array given the name
// stored in its superblock. The homehost part ("host:name") is dropped.
func MDArrayName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return mdPrefix + name
}

// MDUUIDName returns the uuid based lookup name of an md array.
func MDUUIDName(uuid []byte) string {
	return mdUUIDPrefix + hex.EncodeToString(uuid)
}

// ParenthesizedName extracts NAME from a device argument of the
// form "(NAME)". It returns false when the argument has another shape.
func ParenthesizedName(arg string) (string, bool) {
	if len(arg) > 2 && arg[0] == '(' && arg[len(arg)-1] == ')' {
		return arg[1 : len(arg)-1], true
	}
	return "", false
}
