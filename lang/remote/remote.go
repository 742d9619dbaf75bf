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

// Package remote is the boundary to the remote execution service. Graphs are
// serialized and handed to an Executor, which owns the transport. Nothing in
// here retries; that is left to the Executor.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/purpleidea/lazygraph/lang/catalog"
	"github.com/purpleidea/lazygraph/lang/encoding"
	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/prometheus"
	"github.com/purpleidea/lazygraph/util/errwrap"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// FormatLegacy is the nested legacy wire format.
	FormatLegacy = "legacy"

	// FormatCloud is the flat reference-based wire format.
	FormatCloud = "cloud"
)

// Formats is the list of every supported wire format.
var Formats = []string{FormatLegacy, FormatCloud}

// Request is a single evaluation request.
type Request struct {
	// ID is unique per request, so that the service and the logs can
	// correlate it.
	ID uuid.UUID

	// Format is the wire format of the payload.
	Format string

	// Payload is the serialized graph.
	Payload string
}

// Executor is the transport to the remote service.
type Executor interface {
	// Compute evaluates a serialized graph and returns the JSON result. If
	// the graph is a saved computation, the result may itself be a graph.
	Compute(ctx context.Context, req *Request) ([]byte, error)

	// Signatures returns the JSON signature table of the catalog.
	Signatures(ctx context.Context) ([]byte, error)
}

// Client serializes graphs and submits them to the remote service.
type Client struct {
	// Executor is the transport to use.
	Executor Executor

	// Data is used to decode returned graphs.
	Data *interfaces.Data

	// Format is the wire format to submit in. The default is FormatLegacy.
	Format string

	// Limiter paces submissions if it is set.
	Limiter *rate.Limiter

	// Prometheus collects metrics if it is set.
	Prometheus *prometheus.Prometheus

	// Debug represents if we're running in debug mode or not.
	Debug bool

	// Logf is a logger which should be used.
	Logf func(format string, v ...interface{})
}

var _ catalog.Fetcher = &Client{} // ensure it meets this expectation

// Validate makes sure we've built our struct properly.
func (obj *Client) Validate() error {
	if obj.Executor == nil {
		return fmt.Errorf("must specify an executor")
	}
	switch obj.format() {
	case FormatLegacy, FormatCloud:
	default:
		return fmt.Errorf("unknown format: %s", obj.Format)
	}
	return nil
}

// Init validates the client and registers its metrics. Calling it is optional,
// but without it the format counters only appear after the first request.
func (obj *Client) Init() error {
	if err := obj.Validate(); err != nil {
		return err
	}
	if obj.Prometheus == nil {
		return nil
	}
	return obj.Prometheus.InitFormatMetrics(Formats)
}

// Request serializes a graph into a new request.
func (obj *Client) Request(v interface{}) (*Request, error) {
	format := obj.format()
	var payload string
	var err error
	switch format {
	case FormatLegacy:
		payload, err = encoding.Serialize(v)
	case FormatCloud:
		payload, err = encoding.SerializeCloud(v)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return nil, err // keep the sentinel visible
	}
	return &Request{
		ID:      uuid.New(),
		Format:  format,
		Payload: payload,
	}, nil
}

// compute submits the graph and returns the raw result.
func (obj *Client) compute(ctx context.Context, v interface{}) ([]byte, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}
	req, err := obj.Request(v)
	if err != nil {
		return nil, err
	}
	if obj.Limiter != nil {
		if err := obj.Limiter.Wait(ctx); err != nil {
			return nil, errwrap.Wrapf(err, "rate limited request %s", req.ID)
		}
	}
	obj.logf("request %s: submitting %d bytes as %s", req.ID, len(req.Payload), req.Format)
	start := time.Now()
	result, err := obj.Executor.Compute(ctx, req)
	obj.Prometheus.UpdateComputeTotal(req.Format, err != nil, time.Since(start))
	if err != nil {
		return nil, errwrap.Wrapf(err, "request %s failed", req.ID)
	}
	obj.logf("request %s: done in %s", req.ID, time.Since(start))
	return result, nil
}

// Evaluate submits the graph and blocks until the result arrives. The result
// is the parsed JSON value. Numbers are json.Number values.
func (obj *Client) Evaluate(ctx context.Context, v interface{}) (interface{}, error) {
	result, err := obj.compute(ctx, v)
	if err != nil {
		return nil, err
	}
	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(result))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, errwrap.Wrapf(err, "invalid result")
	}
	return value, nil
}

// EvaluateAsync runs Evaluate in the background and calls the callback with
// its result once it is done.
func (obj *Client) EvaluateAsync(ctx context.Context, v interface{}, callback func(interface{}, error)) {
	go func() {
		value, err := obj.Evaluate(ctx, v)
		if err != nil {
			obj.logf("async evaluation failed: %s", errwrap.String(err))
		}
		if callback != nil {
			callback(value, err)
		}
	}()
}

// Definition submits a graph which returns another graph, such as a saved
// computation, and decodes that graph in the client format.
func (obj *Client) Definition(ctx context.Context, v interface{}) (interface{}, error) {
	result, err := obj.compute(ctx, v)
	if err != nil {
		return nil, err
	}
	if obj.Data == nil {
		return nil, fmt.Errorf("must specify data to decode with")
	}
	if obj.format() == FormatCloud {
		return encoding.DecodeCloud(obj.Data, result)
	}
	return encoding.Decode(obj.Data, result)
}

// Fetch retrieves and parses the signature table. This lets a catalog.Table
// use the service as its fetcher.
func (obj *Client) Fetch(ctx context.Context) (map[string]*types.Signature, error) {
	if obj.Executor == nil {
		return nil, fmt.Errorf("must specify an executor")
	}
	data, err := obj.Executor.Signatures(ctx)
	obj.Prometheus.UpdateSignatureFetchTotal(err != nil)
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not fetch signatures")
	}
	return catalog.ParseJSON(data)
}

func (obj *Client) format() string {
	if obj.Format == "" {
		return FormatLegacy
	}
	return obj.Format
}

// logf logs if debugging is enabled.
func (obj *Client) logf(format string, v ...interface{}) {
	if !obj.Debug || obj.Logf == nil {
		return
	}
	obj.Logf(format, v...)
}
