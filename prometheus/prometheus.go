// Mgmt
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

// Package prometheus provides functions that are useful to control and manage
// the built-in prometheus instance which counts remote evaluations.
package prometheus

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPrometheusListen is registered in
// https://github.com/prometheus/prometheus/wiki/Default-port-allocations
const DefaultPrometheusListen = "127.0.0.1:9233"

// Prometheus is the struct that contains information about the prometheus
// instance. Run Init() on it.
type Prometheus struct {
	Listen string // the listen address for the net/http server

	registry *prometheus.Registry
	server   *http.Server

	computeTotal            *prometheus.CounterVec   // total of graphs that were submitted
	computeSeconds          *prometheus.HistogramVec // time spent waiting on the service
	signatureFetchTotal     *prometheus.CounterVec   // total of signature table fetches
	processStartTimeSeconds prometheus.Gauge         // process start time in seconds since unix epoch
}

// Init some parameters - currently the Listen address.
func (obj *Prometheus) Init() error {
	if len(obj.Listen) == 0 {
		obj.Listen = DefaultPrometheusListen
	}
	obj.registry = prometheus.NewRegistry()

	obj.computeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazygraph_compute_total",
			Help: "Number of graphs submitted for evaluation.",
		},
		// Labels for this metric.
		// format: wire format of the graph: legacy, cloud
		// errorful: did the evaluation return an error
		[]string{"format", "errorful"},
	)
	if err := obj.registry.Register(obj.computeTotal); err != nil {
		return err
	}

	obj.computeSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lazygraph_compute_duration_seconds",
			Help:    "Time spent waiting for an evaluation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)
	if err := obj.registry.Register(obj.computeSeconds); err != nil {
		return err
	}

	obj.signatureFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazygraph_signature_fetch_total",
			Help: "Number of signature table fetches.",
		},
		[]string{"errorful"},
	)
	if err := obj.registry.Register(obj.signatureFetchTotal); err != nil {
		return err
	}

	obj.processStartTimeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lazygraph_process_start_time_seconds",
			Help: "Start time of the process since unix epoch in seconds.",
		},
	)
	if err := obj.registry.Register(obj.processStartTimeSeconds); err != nil {
		return err
	}
	// directly set the processStartTimeSeconds
	obj.processStartTimeSeconds.SetToCurrentTime()

	return nil
}

// InitFormatMetrics creates the labelled counters of each wire format, so that
// they are reported as zero before the first evaluation happens.
func (obj *Prometheus) InitFormatMetrics(formats []string) error {
	if obj == nil || obj.computeTotal == nil {
		return fmt.Errorf("prometheus is not initialized")
	}
	for _, format := range formats {
		for _, errorful := range []bool{false, true} {
			labels := prometheus.Labels{"format": format, "errorful": strconv.FormatBool(errorful)}
			if _, err := obj.computeTotal.GetMetricWith(labels); err != nil {
				return err
			}
		}
	}
	return nil
}

// Gatherer returns the registry so that the collected metrics can be read.
func (obj *Prometheus) Gatherer() prometheus.Gatherer {
	return obj.registry
}

// Start runs a http server in a go routine, that responds to /metrics as
// prometheus would expect.
func (obj *Prometheus) Start() error {
	listener, err := net.Listen("tcp", obj.Listen)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(obj.registry, promhttp.HandlerOpts{}))
	obj.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go obj.server.Serve(listener) // returns ErrServerClosed on Stop
	return nil
}

// Stop the http server.
func (obj *Prometheus) Stop() error {
	if obj.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return obj.server.Shutdown(ctx)
}

// UpdateComputeTotal counts one evaluation of a graph in a wire format, and
// how long it took.
func (obj *Prometheus) UpdateComputeTotal(format string, errorful bool, duration time.Duration) error {
	if obj == nil || obj.computeTotal == nil {
		return nil // metrics are optional
	}
	labels := prometheus.Labels{"format": format, "errorful": strconv.FormatBool(errorful)}
	metric := obj.computeTotal.With(labels)
	metric.Inc()
	obj.computeSeconds.With(prometheus.Labels{"format": format}).Observe(duration.Seconds())
	return nil
}

// UpdateSignatureFetchTotal counts one fetch of the signature table.
func (obj *Prometheus) UpdateSignatureFetchTotal(errorful bool) error {
	if obj == nil || obj.signatureFetchTotal == nil {
		return nil // metrics are optional
	}
	obj.signatureFetchTotal.With(prometheus.Labels{"errorful": strconv.FormatBool(errorful)}).Inc()
	return nil
}
