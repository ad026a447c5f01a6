//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/urfave/negroni"

	"github.com/heketi/diskfilter/apps"
	"github.com/heketi/diskfilter/apps/diskfilter"
	"github.com/heketi/diskfilter/middleware"
	"github.com/heketi/diskfilter/pkg/metrics"
	"github.com/heketi/diskfilter/pkg/utils"
)

type Config struct {
	Port        string                   `json:"port"`
	AuthEnabled bool                     `json:"use_auth"`
	JwtConfig   middleware.JwtAuthConfig `json:"jwt"`
	MaxRequests uint32                   `json:"max_requests"`
}

var (
	DISKFILTER_VERSION = "(dev)"
	configfile         string
	showVersion        bool
	logger             = utils.NewLogger("[diskfilter]", utils.LEVEL_INFO)
)

var RootCmd = &cobra.Command{
	Use:     "diskfilter",
	Short:   "diskfilter is a server assembling RAID volumes from disks",
	Long:    "diskfilter is a server assembling RAID volumes from disks",
	Example: "diskfilter --config=/config/file/path/",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("diskfilter %v\n", DISKFILTER_VERSION)
			return nil
		}
		if configfile == "" {
			return errors.New("Please provide configuration file")
		}

		data, err := ioutil.ReadFile(configfile)
		if err != nil {
			return fmt.Errorf("Unable to open config file %v: %v", configfile, err)
		}
		options, err := loadConfig(bytes.NewReader(data))
		if err != nil {
			return err
		}

		app := diskfilter.NewApp(bytes.NewReader(data))
		if app == nil {
			return errors.New("Unable to start application")
		}
		return serve(options, app)
	},
}

func init() {
	RootCmd.Flags().StringVar(&configfile, "config", "", "Configuration file")
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version")
	RootCmd.SilenceUsage = true
}

func setWithEnvVariables(options *Config) {
	// Check for user key
	env := os.Getenv("DISKFILTER_USER_KEY")
	if "" != env {
		options.AuthEnabled = true
		options.JwtConfig.User.PrivateKey = env
	}

	// Check for user key
	env = os.Getenv("DISKFILTER_ADMIN_KEY")
	if "" != env {
		options.AuthEnabled = true
		options.JwtConfig.Admin.PrivateKey = env
	}

	// Check for user key
	env = os.Getenv("DISKFILTER_HTTP_PORT")
	if "" != env {
		options.Port = env
	}

	env = os.Getenv("DISKFILTER_MAX_REQUESTS")
	if "" != env {
		n, err := strconv.ParseUint(env, 10, 32)
		if err != nil {
			logger.Warning("Ignoring DISKFILTER_MAX_REQUESTS=%v: %v", env, err)
		} else {
			options.MaxRequests = uint32(n)
		}
	}
}

func loadConfig(r io.Reader) (*Config, error) {
	var options Config
	err := json.NewDecoder(r).Decode(&options)
	if err != nil {
		return nil, fmt.Errorf("Unable to parse config file: %v", err)
	}

	setWithEnvVariables(&options)
	if options.Port == "" {
		return nil, errors.New("Missing 'port' in configuration file")
	}
	if options.AuthEnabled && middleware.NewJwtAuth(&options.JwtConfig) == nil {
		return nil, errors.New("Authentication requires both the admin and the user key")
	}
	return &options, nil
}

// newHandler stacks the middleware in front of the application routes
func newHandler(options *Config, app apps.Application) (http.Handler, error) {
	router := mux.NewRouter()
	if err := app.SetRoutes(router); err != nil {
		return nil, err
	}
	router.Methods("GET").Path("/metrics").Name("Metrics").Handler(metrics.NewMetricsHandler(app))

	n := negroni.New(negroni.NewRecovery(), negroni.NewLogger())
	n.Use(&middleware.RequestID{})
	if options.MaxRequests > 0 {
		n.Use(middleware.NewHTTPThrottler(options.MaxRequests))
	}

	if options.AuthEnabled {
		n.Use(middleware.NewJwtAuth(&options.JwtConfig))
		n.UseFunc(app.Auth)
		logger.Info("Authorization loaded")
	}

	n.UseHandler(router)
	return n, nil
}

func serve(options *Config, app apps.Application) error {
	defer app.Close()

	handler, err := newHandler(options, app)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + options.Port,
		Handler: handler,
	}

	// Shutdown on SIGINT and SIGTERM
	signalch := make(chan os.Signal, 1)
	signal.Notify(signalch, os.Interrupt, syscall.SIGTERM)
	errch := make(chan error, 1)

	go func() {
		logger.Info("Listening on port %v", options.Port)
		errch <- srv.ListenAndServe()
	}()

	select {
	case err := <-errch:
		return err
	case <-signalch:
	}

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
