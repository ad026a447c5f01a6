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
	"encoding/json"
	"io"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/heketi/diskfilter/pkg/diskfilter/api"
)

type DiskfilterConfig struct {
	LogLevel string `json:"loglevel"`

	// BoltDB file keeping the snapshots of the scans, optional
	Inventory string `json:"inventory"`

	Devices []api.DeviceConfig `json:"devices"`
}

type ConfigFile struct {
	Diskfilter DiskfilterConfig `json:"diskfilter"`
}

var logLevels = []interface{}{
	"none", "critical", "error", "warning", "info", "debug",
}

func (c DiskfilterConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LogLevel, validation.In(logLevels...)),
		validation.Field(&c.Devices, validation.By(func(interface{}) error {
			return api.ValidateDevices(c.Devices)
		})),
	)
}

// LoadConfiguration reads the "diskfilter" section of a configuration
// file and applies the environment overrides.
func LoadConfiguration(configIo io.Reader) (*DiskfilterConfig, error) {
	configParser := json.NewDecoder(configIo)

	var config ConfigFile
	if err := configParser.Decode(&config); err != nil {
		logger.LogError("Unable to parse config file: %v", err.Error())
		return nil, err
	}

	if env := os.Getenv("DISKFILTER_LOGLEVEL"); env != "" {
		config.Diskfilter.LogLevel = env
	}

	if err := config.Diskfilter.Validate(); err != nil {
		logger.LogError("Invalid configuration: %v", err)
		return nil, err
	}

	return &config.Diskfilter, nil
}
