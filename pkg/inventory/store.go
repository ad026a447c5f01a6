//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

// Package inventory keeps snapshots of the discovered volume groups in
// a BoltDB file, so that they can be listed without scanning the disks
// again.
package inventory

import (
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/lpabon/godbc"

	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/utils"
)

const (
	BOLTDB_BUCKET_GROUP = "GROUP"
	BOLTDB_BUCKET_SCAN  = "SCAN"
)

var (
	logger = utils.NewLogger("[inventory]", utils.LEVEL_INFO)
)

type Store struct {
	db *bolt.DB
}

func initializeBuckets(tx *bolt.Tx) error {
	_, err := tx.CreateBucketIfNotExists([]byte(BOLTDB_BUCKET_GROUP))
	if err != nil {
		logger.LogError("Unable to create group bucket in DB")
		return err
	}

	_, err = tx.CreateBucketIfNotExists([]byte(BOLTDB_BUCKET_SCAN))
	if err != nil {
		logger.LogError("Unable to create scan bucket in DB")
		return err
	}

	return nil
}

// Open opens or creates the inventory file at dbpath.
func Open(dbpath string) (*Store, error) {
	godbc.Require(dbpath != "")

	db, err := bolt.Open(dbpath, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		logger.LogError("Unable to open database %v: %v", dbpath, err)
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		return initializeBuckets(tx)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() {
	s.db.Close()
}

// Save replaces the stored groups with those of inv and records the
// snapshot.
func (s *Store) Save(inv *api.InventoryResponse, stats api.StatsInfo) (*ScanEntry, error) {
	godbc.Require(inv != nil)

	scan := NewScanEntry()
	scan.Id = utils.GenUUID()
	scan.Time = time.Now().Unix()
	scan.Stats = stats

	err := s.db.Update(func(tx *bolt.Tx) error {
		keep := map[string]bool{}
		for i := range inv.Groups {
			entry := NewGroupEntryFromInfo(&inv.Groups[i])
			if err := entry.Save(tx); err != nil {
				return err
			}
			keep[entry.Key()] = true
			scan.Groups = append(scan.Groups, entry.Key())
		}

		for _, key := range EntryKeys(tx, BOLTDB_BUCKET_GROUP) {
			if keep[key] {
				continue
			}
			if err := EntryDelete(tx, NewGroupEntry(), key); err != nil {
				return err
			}
		}

		seq, err := tx.Bucket([]byte(BOLTDB_BUCKET_SCAN)).NextSequence()
		if err != nil {
			return err
		}
		scan.Seq = seq
		return scan.Save(tx)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Saved %v groups (scan %v)", len(scan.Groups), scan.Id)
	return scan, nil
}

// Inventory returns the stored groups ordered by key.
func (s *Store) Inventory() (*api.InventoryResponse, error) {
	inv := &api.InventoryResponse{Groups: []api.GroupInfo{}}

	err := s.db.View(func(tx *bolt.Tx) error {
		keys := EntryKeys(tx, BOLTDB_BUCKET_GROUP)
		sort.Strings(keys)
		for _, key := range keys {
			entry, err := NewGroupEntryFromId(tx, key)
			if err != nil {
				return err
			}
			inv.Groups = append(inv.Groups, entry.Info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Store) Group(key string) (*api.GroupInfo, error) {
	var info *api.GroupInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		entry, err := NewGroupEntryFromId(tx, key)
		if err != nil {
			return err
		}
		info = &entry.Info
		return nil
	})
	return info, err
}

// LastScan returns the most recent snapshot record.
func (s *Store) LastScan() (*ScanEntry, error) {
	scan := NewScanEntry()
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BOLTDB_BUCKET_SCAN))
		if b == nil {
			return ErrDbAccess.Err()
		}
		_, val := b.Cursor().Last()
		if val == nil {
			return ErrNotFound.Err()
		}
		return scan.Unmarshal(val)
	})
	if err != nil {
		return nil, err
	}
	return scan, nil
}
