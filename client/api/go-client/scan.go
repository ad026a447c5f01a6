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

package client

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/utils"
)

func (c *Client) Rescan() (*api.RescanResponse, error) {
	r, err := c.request("POST", "/rescan", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var resp api.RescanResponse
	err = utils.GetJsonFromResponse(r, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// Inventory returns the live groups, or the groups of the last scan
// recorded by the server when stored is set.
func (c *Client) Inventory(stored bool) (*api.InventoryResponse, error) {
	path := "/inventory"
	if stored {
		path += "?source=stored"
	}
	r, err := c.request("GET", path, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var inv api.InventoryResponse
	err = utils.GetJsonFromResponse(r, &inv)
	if err != nil {
		return nil, err
	}

	return &inv, nil
}

func (c *Client) LogLevelGet() (*api.LogLevelInfo, error) {
	r, err := c.request("GET", "/internal/logging", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var info api.LogLevelInfo
	err = utils.GetJsonFromResponse(r, &info)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

func (c *Client) LogLevelSet(request *api.LogLevelInfo) error {
	if err := request.Validate(); err != nil {
		return err
	}

	buffer, err := json.Marshal(request)
	if err != nil {
		return err
	}

	r, err := c.request("POST", "/internal/logging", bytes.NewBuffer(buffer), http.StatusOK)
	if err != nil {
		return err
	}
	r.Body.Close()

	return nil
}
