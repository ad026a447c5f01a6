//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package inventory

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/boltdb/bolt"
	"github.com/lpabon/godbc"

	"github.com/heketi/diskfilter/pkg/diskfilter/api"
)

// ScanEntry records one saved snapshot.
type ScanEntry struct {
	Id     string
	Seq    uint64
	Time   int64
	Stats  api.StatsInfo
	Groups []string
}

func NewScanEntry() *ScanEntry {
	return &ScanEntry{
		Groups: make([]string, 0),
	}
}

// scanKey sorts in sequence order.
func scanKey(seq uint64) string {
	return fmt.Sprintf("%016x", seq)
}

func (s *ScanEntry) BucketName() string {
	return BOLTDB_BUCKET_SCAN
}

func (s *ScanEntry) Save(tx *bolt.Tx) error {
	godbc.Require(tx != nil)
	godbc.Require(s.Seq > 0)

	return EntrySave(tx, s, scanKey(s.Seq))
}

func (s *ScanEntry) Marshal() ([]byte, error) {
	var buffer bytes.Buffer
	enc := gob.NewEncoder(&buffer)
	err := enc.Encode(*s)

	return buffer.Bytes(), err
}

func (s *ScanEntry) Unmarshal(buffer []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(buffer))
	err := dec.Decode(s)
	if err != nil {
		return err
	}

	if s.Groups == nil {
		s.Groups = make([]string, 0)
	}
	return nil
}
