// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/ostafen/blkpart/internal/blockio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blkpart"

// Collector holds the metrics of every attached device.
type Collector struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	detections *prometheus.CounterVec
	partitions *prometheus.GaugeVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Block I/O requests by device, operation and result.",
		}, []string{"device", "op", "result"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Bytes transferred by device and operation.",
		}, []string{"device", "op"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Partition table detections by resulting scheme.",
		}, []string{"scheme"}),
		partitions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "partitions",
			Help:      "Partitions published per attached device.",
		}, []string{"device"}),
	}
	c.registry.MustRegister(c.requests, c.bytes, c.detections, c.partitions)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveDetection records the outcome of a detection run on device.
func (c *Collector) ObserveDetection(device, scheme string, partitions int) {
	c.detections.WithLabelValues(scheme).Inc()
	c.partitions.WithLabelValues(device).Set(float64(partitions))
}

// Forget drops the per-device series of a released device.
func (c *Collector) Forget(device string) {
	c.partitions.DeleteLabelValues(device)
}

func (c *Collector) observe(device, op string, n int, err error) {
	c.requests.WithLabelValues(device, op, result(err)).Inc()
	if err == nil {
		c.bytes.WithLabelValues(device, op).Add(float64(n))
	}
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, blockio.ErrMediaChanged):
		return "media_changed"
	case errors.Is(err, blockio.ErrBadBufferSize):
		return "bad_buffer_size"
	case errors.Is(err, blockio.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, blockio.ErrWriteProtected):
		return "write_protected"
	default:
		return "device_error"
	}
}

// Instrument wraps dev so that every request is counted under name.
func (c *Collector) Instrument(name string, dev blockio.Device) blockio.Device {
	return &instrumentedDevice{Device: dev, name: name, c: c}
}

type instrumentedDevice struct {
	blockio.Device
	name string
	c    *Collector
}

func (d *instrumentedDevice) ReadBlocks(mediaID uint32, lba uint64, buf []byte) error {
	err := d.Device.ReadBlocks(mediaID, lba, buf)
	d.c.observe(d.name, "read", len(buf), err)
	return err
}

func (d *instrumentedDevice) WriteBlocks(mediaID uint32, lba uint64, buf []byte) error {
	err := d.Device.WriteBlocks(mediaID, lba, buf)
	d.c.observe(d.name, "write", len(buf), err)
	return err
}

func (d *instrumentedDevice) FlushBlocks() error {
	err := d.Device.FlushBlocks()
	d.c.observe(d.name, "flush", 0, err)
	return err
}

// Serve exposes the collector on addr until the server fails.
func (c *Collector) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
