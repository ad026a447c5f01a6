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

// Package testutils builds disk images used by the tests of the server
// and of the command line tool.
package testutils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/mdraid"
)

const (
	// superblock 1.2 lives 4K into the member
	superSector = 8
	dataSector  = 16
)

// MDArray describes an md array whose members carry a version 1.2
// superblock.
type MDArray struct {
	Name      string
	UUID      [16]byte
	Level     int32
	Layout    uint32
	ChunkSize uint32
	Members   int
	// Data sectors of each member
	Sectors uint64
}

// Pattern is the byte stored in every byte of sector of member.
func Pattern(member int, sector uint64) byte {
	return byte(0x10*(member+1)) + byte(sector)
}

func (a *MDArray) superblock(member int) *mdraid.Superblock {
	sb := &mdraid.Superblock{
		Magic:        mdraid.Magic,
		MajorVersion: 1,
		SetUUID:      a.UUID,
		Level:        a.Level,
		Layout:       a.Layout,
		Size:         a.Sectors,
		ChunkSize:    a.ChunkSize,
		RaidDisks:    uint32(a.Members),
		MaxDev:       uint32(a.Members),
		DataOffset:   dataSector,
		SuperOffset:  superSector,
		DevNumber:    uint32(member),
	}
	copy(sb.SetName[:], a.Name)
	return sb
}

// Image returns the content of one member.
func (a *MDArray) Image(member int) []byte {
	img := make([]byte, (dataSector+a.Sectors)<<disk.SectorBits)

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, a.superblock(member))
	for role := 0; role < a.Members; role++ {
		binary.Write(&buf, binary.LittleEndian, uint16(role))
	}
	copy(img[superSector<<disk.SectorBits:], buf.Bytes())

	for k := uint64(0); k < a.Sectors; k++ {
		off := (dataSector + k) << disk.SectorBits
		b := Pattern(member, k)
		for i := uint64(0); i < disk.SectorSize; i++ {
			img[off+i] = b
		}
	}
	return img
}

// WriteImages writes each member into dir as <prefix><n>.img and
// returns the paths.
func (a *MDArray) WriteImages(dir, prefix string) ([]string, error) {
	paths := make([]string, 0, a.Members)
	for i := 0; i < a.Members; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%s%d.img", prefix, i))
		if err := ioutil.WriteFile(path, a.Image(i), 0600); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
