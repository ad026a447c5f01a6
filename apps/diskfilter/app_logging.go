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
	"net/http"
	"sort"
	"strings"

	df "github.com/heketi/diskfilter/pkg/diskfilter"
	"github.com/heketi/diskfilter/pkg/diskfilter/api"
	"github.com/heketi/diskfilter/pkg/mdraid"
	"github.com/heketi/diskfilter/pkg/recovery"
	"github.com/heketi/diskfilter/pkg/utils"
)

type levelControl struct {
	get func() utils.LogLevel
	set func(utils.LogLevel)
}

var loggers = map[string]levelControl{
	"diskfilter": {
		get: df.LogLevel,
		set: func(l utils.LogLevel) {
			df.SetLogLevel(l)
			logger.SetLevel(l)
		},
	},
	"mdraid":   {get: mdraid.LogLevel, set: mdraid.SetLogLevel},
	"recovery": {get: recovery.LogLevel, set: recovery.SetLogLevel},
}

func loggerNames() []string {
	names := make([]string, 0, len(loggers))
	for name := range loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// setLogLevel sets every logger to the named level.
func setLogLevel(name string) error {
	level, err := utils.ParseLogLevel(name)
	if err != nil {
		return err
	}
	for _, c := range loggers {
		c.set(level)
	}
	return nil
}

func (a *App) GetLogLevel(w http.ResponseWriter, r *http.Request) {
	info := api.LogLevelInfo{LogLevel: map[string]string{}}
	for name, c := range loggers {
		info.LogLevel[name] = utils.LevelName(c.get())
	}

	utils.WriteJsonResponse(w, http.StatusOK, info)
}

func (a *App) SetLogLevel(w http.ResponseWriter, r *http.Request) {
	msg := api.LogLevelInfo{}
	err := utils.GetJsonFromRequest(r, &msg)
	if err != nil {
		http.Error(w,
			fmt.Sprintf("request unable to be parsed: %s", err.Error()),
			http.StatusBadRequest)
		return
	}
	if err := msg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	levels := map[string]utils.LogLevel{}
	for name, wantLevel := range msg.LogLevel {
		if _, ok := loggers[name]; !ok {
			err := fmt.Errorf("Only %v loggers may be modified",
				strings.Join(loggerNames(), ", "))
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		level, err := utils.ParseLogLevel(wantLevel)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		levels[name] = level
	}

	for name, level := range levels {
		loggers[name].set(level)
	}
	logger.Info("set new log level [%s]", msg.LogLevel)
	logger.Debug("debug logging enabled")

	a.GetLogLevel(w, r)
}
