//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), as published by the Free Software Foundation,
// or under the Apache License, Version 2.0 <LICENSE-APACHE2 or
// http://www.apache.org/licenses/LICENSE-2.0>.
//
// You may not use this file except in compliance with those terms.
//

package testutils

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/heketi/tests"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/diskfilter"
	"github.com/heketi/diskfilter/pkg/mdraid"
)

func TestMDArrayImagesAssemble(t *testing.T) {
	dir, err := ioutil.TempDir("", "images")
	tests.Assert(t, err == nil)
	defer os.RemoveAll(dir)

	a := &MDArray{
		Name:      "mirror",
		UUID:      [16]byte{1, 2, 3},
		Level:     1,
		ChunkSize: 8,
		Members:   2,
		Sectors:   32,
	}
	paths, err := a.WriteImages(dir, "hd")
	tests.Assert(t, err == nil, err)
	tests.Assert(t, len(paths) == 2)

	layer := disk.NewDefaultLayer()
	files := disk.NewFileSource("hd", disk.DeviceTypeFile)
	files.Add(disk.FileDevice{Name: "hd0", Path: paths[0]})
	files.Add(disk.FileDevice{Name: "hd1", Path: paths[1]})
	layer.Register(files)
	r := diskfilter.NewRegistry(layer)
	mdraid.Register(r)
	defer r.Close()

	dev, err := r.OpenDevice("md/mirror")
	tests.Assert(t, err == nil, err)
	tests.Assert(t, dev.Sectors() == 32)

	buf := make([]byte, disk.SectorSize)
	err = dev.ReadSectors(5, buf)
	tests.Assert(t, err == nil, err)
	tests.Assert(t, buf[0] == Pattern(0, 5) || buf[0] == Pattern(1, 5))
}
