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
	"net/http"

	"github.com/heketi/diskfilter/middleware"
	"github.com/heketi/diskfilter/pkg/disk"
	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/utils"
)

// Rescan walks every device again and reports the volumes that became
// readable.
func (a *App) Rescan(w http.ResponseWriter, r *http.Request) {
	added := []string{}

	a.lock.Lock()
	a.registry.Iterate(disk.PullRescan, func(name string) bool {
		added = append(added, name)
		return false
	})
	stats := a.registry.StatsInfo()
	a.lock.Unlock()

	if err := a.saveInventory(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("Rescan [%v] found %v new volumes",
		middleware.GetRequestID(r.Context()), len(added))
	utils.WriteJsonResponse(w, http.StatusOK, api.RescanResponse{
		Added: added,
		Stats: stats,
	})
}

// InventoryInfo returns the live groups, or with ?source=stored the
// groups recorded by the last scan.
func (a *App) InventoryInfo(w http.ResponseWriter, r *http.Request) {
	var (
		inv *api.InventoryResponse
		err error
	)

	switch r.URL.Query().Get("source") {
	case "", "live":
		inv, err = a.Inventory()
	case "stored":
		if a.store == nil {
			http.Error(w, "No inventory database configured", http.StatusNotFound)
			return
		}
		inv, err = a.store.Inventory()
	default:
		http.Error(w, "source must be live or stored", http.StatusBadRequest)
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}

	utils.WriteJsonResponse(w, http.StatusOK, inv)
}
