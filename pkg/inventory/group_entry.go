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

	"github.com/boltdb/bolt"
	"github.com/lpabon/godbc"

	"github.com/heketi/diskfilter/pkg/diskfilter/api"
)

// GroupEntry is the stored description of one volume group.
type GroupEntry struct {
	Info api.GroupInfo
}

// GroupKey is the key of a group: its uuid, or its name for groups
// without one.
func GroupKey(info *api.GroupInfo) string {
	if info.UUID != "" {
		return info.UUID
	}
	return "name:" + info.Name
}

func NewGroupEntry() *GroupEntry {
	entry := &GroupEntry{}
	entry.Info.Members = make([]api.MemberInfo, 0)
	entry.Info.Volumes = make([]api.VolumeInfo, 0)
	return entry
}

func NewGroupEntryFromInfo(info *api.GroupInfo) *GroupEntry {
	godbc.Require(info != nil)

	entry := NewGroupEntry()
	entry.Info = *info
	return entry
}

func NewGroupEntryFromId(tx *bolt.Tx, id string) (*GroupEntry, error) {
	godbc.Require(tx != nil)

	entry := NewGroupEntry()
	err := EntryLoad(tx, entry, id)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (g *GroupEntry) BucketName() string {
	return BOLTDB_BUCKET_GROUP
}

func (g *GroupEntry) Key() string {
	return GroupKey(&g.Info)
}

func (g *GroupEntry) Save(tx *bolt.Tx) error {
	godbc.Require(tx != nil)

	return EntrySave(tx, g, g.Key())
}

func (g *GroupEntry) Delete(tx *bolt.Tx) error {
	return EntryDelete(tx, g, g.Key())
}

func (g *GroupEntry) Marshal() ([]byte, error) {
	var buffer bytes.Buffer
	enc := gob.NewEncoder(&buffer)
	err := enc.Encode(*g)

	return buffer.Bytes(), err
}

func (g *GroupEntry) Unmarshal(buffer []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(buffer))
	err := dec.Decode(g)
	if err != nil {
		return err
	}

	// Make sure to setup arrays if nil
	if g.Info.Members == nil {
		g.Info.Members = make([]api.MemberInfo, 0)
	}
	if g.Info.Volumes == nil {
		g.Info.Volumes = make([]api.VolumeInfo, 0)
	}

	return nil
}
