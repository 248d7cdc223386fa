package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwanzatukule/marketplace/pkg/logger"
)

type fakeGRPC struct {
	serving atomic.Bool
	stopped chan struct{}
}

func (f *fakeGRPC) Serve(lis net.Listener) error {
	<-f.stopped
	return lis.Close()
}

func (f *fakeGRPC) SetServing(ok bool) { f.serving.Store(ok) }

func (f *fakeGRPC) Stop() { close(f.stopped) }

func TestServeAndGracefulShutdown(t *testing.T) {
	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	g := &fakeGRPC{stopped: make(chan struct{})}
	cfg := Config{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "ok")
		}),
		GRPC:            g,
		ShutdownTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, httpLis, grpcLis, logger.Discard()) }()

	require.Eventually(t, g.serving.Load, time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + httpLis.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, g.serving.Load())
}

func TestRunReportsListenErrors(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	err = Run(context.Background(), Config{HTTPAddr: lis.Addr().String(), Handler: http.NotFoundHandler()}, logger.Discard())
	assert.ErrorContains(t, err, "listen http")
}
