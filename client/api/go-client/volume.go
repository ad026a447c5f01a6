//
// Copyright (c) 2015 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), as published by the Free Software Foundation,
// or under the Apache License, Version 2.0 <LICENSE-APACHE2 or
// http://www.apache.org/licenses/LICENSE-2.0>.
//
// You may not use this file except in compliance with those terms.
//

package client

import (
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/utils"
)

func (c *Client) VolumeList() (*api.VolumeListResponse, error) {
	r, err := c.request("GET", "/volumes", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	// Read JSON response
	var volumes api.VolumeListResponse
	err = utils.GetJsonFromResponse(r, &volumes)
	if err != nil {
		return nil, err
	}

	return &volumes, nil
}

func (c *Client) VolumeInfo(name string) (*api.VolumeInfo, error) {
	r, err := c.request("GET", volumePath(name), nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var volume api.VolumeInfo
	err = utils.GetJsonFromResponse(r, &volume)
	if err != nil {
		return nil, err
	}

	return &volume, nil
}

// VolumeRead returns length sectors of the volume starting at offset
func (c *Client) VolumeRead(name string, offset, length uint64) ([]byte, error) {
	req := api.ReadRequest{Offset: offset, Length: length}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%v?offset=%d&length=%d", volumePath(name, "data"), offset, length)
	r, err := c.request("GET", path, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	return ioutil.ReadAll(r.Body)
}

func (c *Client) CryptoCheck(name string) (*api.CryptoCheckResponse, error) {
	r, err := c.request("GET", volumePath(name, "cryptocheck"), nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var check api.CryptoCheckResponse
	err = utils.GetJsonFromResponse(r, &check)
	if err != nil {
		return nil, err
	}

	return &check, nil
}
