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
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/utils"
)

func volumeName(r *http.Request) (string, error) {
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil {
		return "", disk.ErrBadArgument.Errorf("invalid volume name: %v", err)
	}
	return name, nil
}

func (a *App) VolumeList(w http.ResponseWriter, r *http.Request) {
	list := api.VolumeListResponse{Volumes: []string{}}

	a.lock.Lock()
	a.registry.Iterate(disk.PullNone, func(name string) bool {
		list.Volumes = append(list.Volumes, name)
		return false
	})
	a.lock.Unlock()

	utils.WriteJsonResponse(w, http.StatusOK, list)
}

func (a *App) VolumeInfo(w http.ResponseWriter, r *http.Request) {
	name, err := volumeName(r)
	if err != nil {
		httpError(w, err)
		return
	}

	a.lock.Lock()
	dev, err := a.registry.OpenDevice(name)
	if err != nil {
		a.lock.Unlock()
		httpError(w, err)
		return
	}
	info := a.registry.VolumeInfo(dev.LV())
	dev.Close()
	a.lock.Unlock()

	utils.WriteJsonResponse(w, http.StatusOK, info)
}

func (a *App) VolumeCryptoCheck(w http.ResponseWriter, r *http.Request) {
	name, err := volumeName(r)
	if err != nil {
		httpError(w, err)
		return
	}

	var out bytes.Buffer
	a.lock.Lock()
	count, err := a.registry.CryptoCheck(&out, "("+name+")")
	a.lock.Unlock()

	if err != nil && !disk.ErrTestFailure.In(err) {
		httpError(w, err)
		return
	}

	utils.WriteJsonResponse(w, http.StatusOK, api.CryptoCheckResponse{
		Name:      name,
		Encrypted: err == nil,
		Examined:  count,
		Message:   out.String(),
	})
}

func parseSectors(r *http.Request) (api.ReadRequest, error) {
	var req api.ReadRequest
	q := r.URL.Query()

	for _, p := range []struct {
		key   string
		value *uint64
	}{
		{"offset", &req.Offset},
		{"length", &req.Length},
	} {
		s := q.Get(p.key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid %v: %v", p.key, s)
		}
		*p.value = v
	}

	return req, req.Validate()
}

func (a *App) VolumeRead(w http.ResponseWriter, r *http.Request) {
	name, err := volumeName(r)
	if err != nil {
		httpError(w, err)
		return
	}

	req, err := parseSectors(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	buf := make([]byte, req.Length<<disk.SectorBits)

	a.lock.Lock()
	dev, err := a.registry.OpenDevice(name)
	if err != nil {
		a.lock.Unlock()
		httpError(w, err)
		return
	}
	err = dev.ReadSectors(req.Offset, buf)
	dev.Close()
	a.lock.Unlock()

	if err != nil {
		logger.LogError("Unable to read %v sectors at %v of %v: %v",
			req.Length, req.Offset, name, err)
		httpError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf)
}

// VolumeWrite always fails: diskfilter devices are read only.
func (a *App) VolumeWrite(w http.ResponseWriter, r *http.Request) {
	name, err := volumeName(r)
	if err != nil {
		httpError(w, err)
		return
	}

	a.lock.Lock()
	dev, err := a.registry.OpenDevice(name)
	if err == nil {
		err = dev.WriteSectors(0, nil)
		dev.Close()
	}
	a.lock.Unlock()

	httpError(w, err)
}
