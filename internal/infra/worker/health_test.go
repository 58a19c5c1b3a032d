package worker_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-agent/internal/infra/worker"
)

func startHealthServer(t *testing.T) (*worker.HealthServer, string, context.CancelFunc) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	server := worker.NewHealthServer(addr, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		_ = server.Start(ctx)
	}()

	// wait until the liveness endpoint answers
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	return server, addr, cancel
}

func TestHealthEndpoints(t *testing.T) {
	server, addr, cancel := startHealthServer(t)
	defer cancel()

	resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	// not ready until SetReady(true)
	readyResp, err := http.Get(fmt.Sprintf("http://%s/health/ready", addr))
	require.NoError(t, err)
	_ = readyResp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, readyResp.StatusCode)

	server.SetReady(true)

	readyResp, err = http.Get(fmt.Sprintf("http://%s/health/ready", addr))
	require.NoError(t, err)
	_ = readyResp.Body.Close()
	assert.Equal(t, http.StatusOK, readyResp.StatusCode)
}

func TestHealthServerShutsDownOnCancel(t *testing.T) {
	_, addr, cancel := startHealthServer(t)

	cancel()

	assert.Eventually(t, func() bool {
		_, err := http.Get(fmt.Sprintf("http://%s/health", addr))
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}
