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
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/heketi/diskfilter/middleware"
	df "github.com/heketi/diskfilter/pkg/diskfilter"
	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/inventory"
	"github.com/heketi/diskfilter/pkg/utils"
)

var (
	logger = utils.NewLogger("[diskfilter-app]", utils.LEVEL_INFO)
)

type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

type Routes []Route

// App serves the volumes of one registry. The registry is not safe for
// concurrent use, every handler holds lock while it touches it.
type App struct {
	lock     sync.Mutex
	conf     *DiskfilterConfig
	registry *df.Registry
	store    *inventory.Store
}

// NewApp reads the configuration from configIo, scans the configured
// devices and records the result. It returns nil on error.
func NewApp(configIo io.Reader) *App {
	conf, err := LoadConfiguration(configIo)
	if err != nil {
		return nil
	}
	return NewAppWithConfig(conf)
}

func NewAppWithConfig(conf *DiskfilterConfig) *App {
	if err := conf.Validate(); err != nil {
		logger.LogError("Invalid configuration: %v", err)
		return nil
	}

	app := &App{
		conf: conf,
	}

	if conf.LogLevel != "" {
		if err := setLogLevel(conf.LogLevel); err != nil {
			logger.Err(err)
			return nil
		}
	}

	if conf.Inventory != "" {
		var err error
		app.store, err = inventory.Open(conf.Inventory)
		if err != nil {
			logger.LogError("Unable to open inventory %v: %v", conf.Inventory, err)
			return nil
		}
	}

	app.registry = NewEngine(conf.Devices)
	if err := app.registry.Scan(); err != nil {
		logger.Err(err)
	}
	if err := app.saveInventory(); err != nil {
		app.Close()
		return nil
	}

	logger.Info("Loaded %v volume groups from %v devices",
		len(app.registry.VolumeGroups()), len(conf.Devices))
	return app
}

// saveInventory records the current groups when an inventory is
// configured.
func (a *App) saveInventory() error {
	if a.store == nil {
		return nil
	}

	a.lock.Lock()
	inv := a.registry.Inventory()
	stats := a.registry.StatsInfo()
	a.lock.Unlock()

	_, err := a.store.Save(inv, stats)
	if err != nil {
		logger.LogError("Unable to save inventory: %v", err)
	}
	return err
}

// Register Routes
func (a *App) SetRoutes(router *mux.Router) error {

	routes := Routes{

		// HelloWorld
		Route{"Hello", "GET", "/hello", a.Hello},

		// Volumes
		Route{"VolumeList", "GET", "/volumes", a.VolumeList},
		Route{"VolumeInfo", "GET", "/volumes/{name}", a.VolumeInfo},
		Route{"VolumeCryptoCheck", "GET", "/volumes/{name}/cryptocheck", a.VolumeCryptoCheck},
		Route{"VolumeRead", "GET", "/volumes/{name}/data", a.VolumeRead},
		Route{"VolumeWrite", "PUT", "/volumes/{name}/data", a.VolumeWrite},

		// Discovery
		Route{"Rescan", "POST", "/rescan", a.Rescan},
		Route{"Inventory", "GET", "/inventory", a.InventoryInfo},

		// Logging
		Route{"GetLogLevel", "GET", "/internal/logging", a.GetLogLevel},
		Route{"SetLogLevel", "POST", "/internal/logging", a.SetLogLevel},
	}

	// Volume names contain slashes, they arrive path escaped
	router.UseEncodedPath()

	for _, route := range routes {
		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(route.HandlerFunc)
	}

	return nil
}

func (a *App) Close() {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.registry.Close()
	if a.store != nil {
		a.store.Close()
	}
	logger.Info("Closed")
}

func (a *App) Hello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Hello from diskfilter")
}

// Inventory describes the groups currently known.
func (a *App) Inventory() (*api.InventoryResponse, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.registry.Inventory(), nil
}

func (a *App) Stats() api.StatsInfo {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.registry.StatsInfo()
}

// Auth lets user tokens read volumes; everything else needs the admin.
func (a *App) Auth(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	claims := middleware.GetJwtClaims(r.Context())
	if claims == nil {
		http.Error(w, "Required authorization token not found", http.StatusUnauthorized)
		return
	}

	if claims.Issuer == middleware.UserIssuer {
		path := r.URL.Path
		if r.Method != http.MethodGet ||
			!(path == "/hello" || path == "/volumes" || strings.HasPrefix(path, "/volumes/")) {
			http.Error(w, "Administrator access required", http.StatusUnauthorized)
			return
		}
	}

	next(w, r)
}
