//go:build linux

package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quwei/internal/logging"
	"quwei/internal/metrics"
)

func TestServeMetrics(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	r := metrics.NewRegistry("quwei")
	r.Counter("keys_total", "Key events", metrics.Labels{"result": "handled"}).Add(3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, serveMetrics(ctx, addr, r, logging.Discard()))

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `quwei_keys_total{result="handled"} 3`)
}

func TestServeMetricsBadAddress(t *testing.T) {
	assert.Error(t, serveMetrics(context.Background(), "256.0.0.1:http", metrics.NewRegistry(""), logging.Discard()))
}
