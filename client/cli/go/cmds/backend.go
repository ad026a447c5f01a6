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
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/heketi/diskfilter/apps/diskfilter"
	client "github.com/heketi/diskfilter/client/api/go-client"
	"github.com/heketi/diskfilter/pkg/disk"
	df "github.com/heketi/diskfilter/pkg/diskfilter"
	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/inventory"
)

// backend serves the commands either from an engine running in the
// cli process or from a diskfilter server.
type backend interface {
	Rescan() (*api.RescanResponse, error)
	VolumeList() (*api.VolumeListResponse, error)
	VolumeInfo(name string) (*api.VolumeInfo, error)
	VolumeRead(name string, offset, length uint64) ([]byte, error)
	CryptoCheck(name string) (*api.CryptoCheckResponse, error)
	Inventory(stored bool) (*api.InventoryResponse, error)
	Close()
}

// cliConfig is the file given with --config
type cliConfig struct {
	Inventory string             `yaml:"inventory"`
	Devices   []api.DeviceConfig `yaml:"devices"`
}

func loadConfig(path string) (*cliConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read configuration: %v", err)
	}

	var conf cliConfig
	err = yaml.Unmarshal(data, &conf)
	if err != nil {
		return nil, fmt.Errorf("unable to parse configuration %v: %v", path, err)
	}
	return &conf, nil
}

// parseDisk reads a --disk value, name=path[:crypto][:removable]
func parseDisk(value string) (api.DeviceConfig, error) {
	var dev api.DeviceConfig

	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return dev, fmt.Errorf("expected name=path, got: %v", value)
	}
	dev.Name = parts[0]

	fields := strings.Split(parts[1], ":")
	dev.Path = fields[0]
	for _, f := range fields[1:] {
		switch f {
		case "crypto":
			dev.Encrypted = true
		case "removable":
			dev.Removable = true
		default:
			return dev, fmt.Errorf("unknown disk option %v in %v", f, value)
		}
	}
	return dev, nil
}

func newBackend() (backend, error) {
	if options.Url != "" {
		if options.Config != "" || len(options.Disks) != 0 {
			return nil, errors.New("--config and --disk cannot be used with --server")
		}
		return &remoteBackend{
			c: client.NewClient(options.Url, options.User, options.Key),
		}, nil
	}

	conf := &cliConfig{}
	if options.Config != "" {
		var err error
		conf, err = loadConfig(options.Config)
		if err != nil {
			return nil, err
		}
	}
	for _, value := range options.Disks {
		dev, err := parseDisk(value)
		if err != nil {
			return nil, err
		}
		conf.Devices = append(conf.Devices, dev)
	}
	if len(conf.Devices) == 0 {
		return nil, errors.New("Server or disks must be provided")
	}
	return newLocalBackend(conf)
}

type remoteBackend struct {
	c *client.Client
}

func (b *remoteBackend) Rescan() (*api.RescanResponse, error) {
	return b.c.Rescan()
}

func (b *remoteBackend) VolumeList() (*api.VolumeListResponse, error) {
	return b.c.VolumeList()
}

func (b *remoteBackend) VolumeInfo(name string) (*api.VolumeInfo, error) {
	return b.c.VolumeInfo(name)
}

func (b *remoteBackend) VolumeRead(name string, offset, length uint64) ([]byte, error) {
	return b.c.VolumeRead(name, offset, length)
}

func (b *remoteBackend) CryptoCheck(name string) (*api.CryptoCheckResponse, error) {
	return b.c.CryptoCheck(name)
}

func (b *remoteBackend) Inventory(stored bool) (*api.InventoryResponse, error) {
	return b.c.Inventory(stored)
}

func (b *remoteBackend) Close() {}

// localBackend assembles the configured devices in process
type localBackend struct {
	registry *df.Registry
	store    *inventory.Store
}

func newLocalBackend(conf *cliConfig) (*localBackend, error) {
	if err := api.ValidateDevices(conf.Devices); err != nil {
		return nil, err
	}

	b := &localBackend{
		registry: diskfilter.NewEngine(conf.Devices),
	}
	if conf.Inventory != "" {
		var err error
		b.store, err = inventory.Open(conf.Inventory)
		if err != nil {
			b.registry.Close()
			return nil, err
		}
	}

	if err := b.registry.Scan(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *localBackend) Rescan() (*api.RescanResponse, error) {
	resp := &api.RescanResponse{Added: []string{}}
	b.registry.Iterate(disk.PullRescan, func(name string) bool {
		resp.Added = append(resp.Added, name)
		return false
	})
	resp.Stats = b.registry.StatsInfo()

	if b.store != nil {
		_, err := b.store.Save(b.registry.Inventory(), resp.Stats)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (b *localBackend) VolumeList() (*api.VolumeListResponse, error) {
	list := &api.VolumeListResponse{Volumes: []string{}}
	b.registry.Iterate(disk.PullNone, func(name string) bool {
		list.Volumes = append(list.Volumes, name)
		return false
	})
	return list, nil
}

func (b *localBackend) VolumeInfo(name string) (*api.VolumeInfo, error) {
	dev, err := b.registry.OpenDevice(name)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	info := b.registry.VolumeInfo(dev.LV())
	return &info, nil
}

func (b *localBackend) VolumeRead(name string, offset, length uint64) ([]byte, error) {
	req := api.ReadRequest{Offset: offset, Length: length}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dev, err := b.registry.OpenDevice(name)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	buf := make([]byte, length<<disk.SectorBits)
	err = dev.ReadSectors(offset, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (b *localBackend) CryptoCheck(name string) (*api.CryptoCheckResponse, error) {
	var out bytes.Buffer
	count, err := b.registry.CryptoCheck(&out, "("+name+")")
	if err != nil && !disk.ErrTestFailure.In(err) {
		return nil, err
	}

	return &api.CryptoCheckResponse{
		Name:      name,
		Encrypted: err == nil,
		Examined:  count,
		Message:   out.String(),
	}, nil
}

func (b *localBackend) Inventory(stored bool) (*api.InventoryResponse, error) {
	if !stored {
		return b.registry.Inventory(), nil
	}
	if b.store == nil {
		return nil, errors.New("no inventory database configured")
	}
	return b.store.Inventory()
}

func (b *localBackend) Close() {
	if b.store != nil {
		b.store.Close()
	}
	b.registry.Close()
}
