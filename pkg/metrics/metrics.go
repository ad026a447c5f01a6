//
// Copyright (c) 2018 The heketi Authors
//
// This file is licensed to you under your choice of the GNU Lesser
// General Public License, version 3 or any later version (LGPLv3 or
// later), or the GNU General Public License, version 2 (GPLv2), in all
// cases as published by the Free Software Foundation.
//

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heketi/diskfilter/apps"
)

type Metrics struct {
	app apps.Application
}

const (
	namespace = "diskfilter"
)

var (
	up = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "up"),
		"Was the last query of the volume inventory successful.",
		nil, nil,
	)
	groupCount = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "group_count"),
		"Number of volume groups at last query.",
		nil, nil,
	)
	volumesCount = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "volumes_count"),
		"Number of logical volumes in a group at last query.",
		[]string{"group"}, nil,
	)
	memberCount = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "member_count"),
		"Number of physical volumes of a group.",
		[]string{"group"}, nil,
	)
	memberMissing = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "member_missing_count"),
		"Number of physical volumes of a group without a disk.",
		[]string{"group"}, nil,
	)
	volumeSize = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "volume_size_sectors"),
		"Size of a logical volume in sectors.",
		[]string{"group", "volume"}, nil,
	)
	volumeReadable = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "volume_readable"),
		"Whether a logical volume can be read.",
		[]string{"group", "volume"}, nil,
	)
	volumeDegraded = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "volume_degraded"),
		"Whether reading a logical volume needs redundancy.",
		[]string{"group", "volume"}, nil,
	)
	reads = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "reads_total"),
		"Reads served by diskfilter devices.",
		nil, nil,
	)
	readErrors = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "read_errors_total"),
		"Reads of diskfilter devices that failed.",
		nil, nil,
	)
	recoveries = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "recoveries_total"),
		"Chunks rebuilt from parity.",
		nil, nil,
	)
	scans = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "scans_total"),
		"Disk scans run by the registry.",
		nil, nil,
	)
)

// Describe all the metrics exported by the exporter. It implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- up
	ch <- groupCount
	ch <- volumesCount
	ch <- memberCount
	ch <- memberMissing
	ch <- volumeSize
	ch <- volumeReadable
	ch <- volumeDegraded
	ch <- reads
	ch <- readErrors
	ch <- recoveries
	ch <- scans
}

func boolValue(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// Collect metrics from the application
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	stats := m.app.Stats()
	ch <- prometheus.MustNewConstMetric(reads, prometheus.CounterValue, float64(stats.Reads))
	ch <- prometheus.MustNewConstMetric(readErrors, prometheus.CounterValue, float64(stats.ReadErrors))
	ch <- prometheus.MustNewConstMetric(recoveries, prometheus.CounterValue, float64(stats.Recoveries))
	ch <- prometheus.MustNewConstMetric(scans, prometheus.CounterValue, float64(stats.Scans))

	inv, err := m.app.Inventory()
	if err != nil {
		ch <- prometheus.MustNewConstMetric(
			up, prometheus.GaugeValue, 0.0,
		)
		return
	}
	ch <- prometheus.MustNewConstMetric(
		up, prometheus.GaugeValue, 1.0,
	)

	ch <- prometheus.MustNewConstMetric(
		groupCount, prometheus.GaugeValue, float64(len(inv.Groups)),
	)
	for _, group := range inv.Groups {
		missing := 0
		for _, member := range group.Members {
			if member.Missing() {
				missing++
			}
		}
		ch <- prometheus.MustNewConstMetric(
			volumesCount, prometheus.GaugeValue, float64(len(group.Volumes)), group.Name,
		)
		ch <- prometheus.MustNewConstMetric(
			memberCount, prometheus.GaugeValue, float64(len(group.Members)), group.Name,
		)
		ch <- prometheus.MustNewConstMetric(
			memberMissing, prometheus.GaugeValue, float64(missing), group.Name,
		)
		for _, volume := range group.Volumes {
			if volume.Name == "" {
				continue
			}
			ch <- prometheus.MustNewConstMetric(
				volumeSize, prometheus.GaugeValue, float64(volume.Size), group.Name, volume.Name,
			)
			ch <- prometheus.MustNewConstMetric(
				volumeReadable, prometheus.GaugeValue, boolValue(volume.Readable), group.Name, volume.Name,
			)
			ch <- prometheus.MustNewConstMetric(
				volumeDegraded, prometheus.GaugeValue, boolValue(volume.Degraded), group.Name, volume.Name,
			)
		}
	}
}

// NewMetricsHandler serves the metrics of app from a registry of its
// own, so that more than one handler may exist in a process.
func NewMetricsHandler(app apps.Application) http.HandlerFunc {
	m := &Metrics{
		app: app,
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(m)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	})
}
