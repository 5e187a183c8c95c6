package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cih-portal/pkg/config"
)

type fakeServer struct {
	startErr error
	stopErr  error
	stopped  bool
}

func (f *fakeServer) Start(ctx context.Context) error { return f.startErr }

func (f *fakeServer) Stop(ctx context.Context) error {
	f.stopped = true
	return f.stopErr
}

func discard() kratoslog.Logger {
	return kratoslog.NewStdLogger(io.Discard)
}

func TestHealthEndpoint(t *testing.T) {
	engine := NewGinEngine("test")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServerManagerReportsStartErrors(t *testing.T) {
	sm := NewServerManager(&config.Config{}, discard())
	boom := errors.New("address already in use")
	sm.AddServer(&fakeServer{startErr: boom})
	sm.AddServer(&fakeServer{})

	require.NoError(t, sm.StartAll(context.Background()))

	select {
	case err := <-sm.Errors():
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("start error not reported")
	}
}

func TestServerManagerStopAll(t *testing.T) {
	sm := NewServerManager(&config.Config{}, discard())
	failing := &fakeServer{stopErr: errors.New("stuck")}
	healthy := &fakeServer{}
	sm.AddServer(failing)
	sm.AddServer(healthy)

	err := sm.StopAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, failing.stopErr)
	assert.True(t, failing.stopped)
	assert.True(t, healthy.stopped, "one failure does not skip the rest")
}

func TestRegisterRoutesRequiresServer(t *testing.T) {
	sm := NewServerManager(&config.Config{}, discard())
	assert.Error(t, sm.RegisterHTTPRoutes(nil))
	assert.Error(t, sm.RegisterGRPCService(nil))
}

func TestGRPCServerStopBeforeStart(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.GRPC.Addr = "127.0.0.1:0"
	w := NewGRPCServerWrapper(cfg, discard())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, w.Stop(ctx))
}
