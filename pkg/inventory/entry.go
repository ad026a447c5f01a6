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
	"github.com/boltdb/bolt"
	"github.com/lpabon/godbc"
)

// DbEntry is a value stored under a key of one bucket.
type DbEntry interface {
	BucketName() string
	Marshal() ([]byte, error)
	Unmarshal(buffer []byte) error
}

func EntryKeys(tx *bolt.Tx, bucket string) []string {
	list := make([]string, 0)

	b := tx.Bucket([]byte(bucket))
	if b == nil {
		return nil
	}

	b.ForEach(func(k, v []byte) error {
		list = append(list, string(k))
		return nil
	})

	return list
}

func EntrySave(tx *bolt.Tx, entry DbEntry, key string) error {
	godbc.Require(tx != nil)
	godbc.Require(len(key) > 0)

	b := tx.Bucket([]byte(entry.BucketName()))
	if b == nil {
		err := ErrDbAccess.Err()
		logger.Err(err)
		return err
	}

	buffer, err := entry.Marshal()
	if err != nil {
		logger.Err(err)
		return err
	}

	err = b.Put([]byte(key), buffer)
	if err != nil {
		logger.Err(err)
		return err
	}

	return nil
}

func EntryDelete(tx *bolt.Tx, entry DbEntry, key string) error {
	godbc.Require(tx != nil)
	godbc.Require(len(key) > 0)

	b := tx.Bucket([]byte(entry.BucketName()))
	if b == nil {
		err := ErrDbAccess.Err()
		logger.Err(err)
		return err
	}

	err := b.Delete([]byte(key))
	if err != nil {
		logger.Err(err)
		return err
	}

	return nil
}

func EntryLoad(tx *bolt.Tx, entry DbEntry, key string) error {
	godbc.Require(tx != nil)
	godbc.Require(len(key) > 0)

	b := tx.Bucket([]byte(entry.BucketName()))
	if b == nil {
		err := ErrDbAccess.Err()
		logger.Err(err)
		return err
	}

	val := b.Get([]byte(key))
	if val == nil {
		return ErrNotFound.Err()
	}

	return entry.Unmarshal(val)
}
