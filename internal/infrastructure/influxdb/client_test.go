package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/beamline-core/internal/infrastructure/config"
)

// fakeServer answers the InfluxDB ping and write endpoints and records
// every line-protocol body it receives.
type fakeServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/write":
			b, _ := io.ReadAll(r.Body)
			fs.mu.Lock()
			fs.bodies = append(fs.bodies, string(b))
			fs.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) written() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return strings.Join(fs.bodies, "")
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "diamond",
		Bucket:        "beamline",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), testConfig("http://127.0.0.1:1"))
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		flush     int
		wantBatch uint
		wantFlush uint
	}{
		{"configured", 500, 2, 500, 2000},
		{"zero", 0, 0, defaultBatchSize, 10000},
		{"negative", -5, -1, defaultBatchSize, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("http://unused")
			cfg.BatchSize = tt.batchSize
			cfg.FlushInterval = tt.flush

			opts := options(cfg)
			if opts.BatchSize() != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", opts.BatchSize(), tt.wantBatch)
			}
			if opts.FlushInterval() != tt.wantFlush {
				t.Errorf("FlushInterval() = %d, want %d", opts.FlushInterval(), tt.wantFlush)
			}
		})
	}
}

func TestConnect_BatchDefaults(t *testing.T) {
	fs := newFakeServer(t)
	tests := []struct {
		name      string
		batchSize int
		flush     int
	}{
		{"zero", 0, 0},
		{"negative", -5, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(fs.URL)
			cfg.BatchSize = tt.batchSize
			cfg.FlushInterval = tt.flush

			client, err := Connect(context.Background(), cfg)
			if err != nil {
				t.Fatalf("Connect() error = %v", err)
			}
			defer client.Close()

			if !client.IsOpen() {
				t.Error("IsOpen() = false after Connect()")
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	fs := newFakeServer(t)
	client, err := Connect(context.Background(), testConfig(fs.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client.Close()
	if err := client.HealthCheck(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}
}

func TestWriteConnectRun(t *testing.T) {
	fs := newFakeServer(t)
	client, err := Connect(context.Background(), testConfig(fs.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var writeErr error
	var mu sync.Mutex
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	at := time.Unix(1700000000, 0)
	client.WriteConnectRun(ConnectRun{Beamline: "i22", Connected: 11, Failed: 1, Duration: 1500 * time.Millisecond, At: at})
	client.WriteDeviceConnect(DeviceConnect{Beamline: "i22", Device: "saxs", At: at})
	client.WriteDeviceConnect(DeviceConnect{Beamline: "i22", Device: "waxs", Kind: "timeout", At: at})
	client.Flush()

	got := fs.written()
	for _, want := range []string{
		"connect_run,beamline=i22,mock=false connected=11i,duration_ms=1500i,failed=1i 1700000000000000000",
		"device_connect,beamline=i22,device=saxs,kind=none connected=true 1700000000000000000",
		"device_connect,beamline=i22,device=waxs,kind=timeout connected=false 1700000000000000000",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing line %q in %q", want, got)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		t.Errorf("Write error = %v", writeErr)
	}
}

func TestWritePoint(t *testing.T) {
	fs := newFakeServer(t)
	client, err := Connect(context.Background(), testConfig(fs.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WritePoint(write.NewPoint("pv_gateway",
		map[string]string{"beamline": "i03"},
		map[string]interface{}{"watches": 3},
		time.Unix(1, 0),
	))
	client.Flush()

	if got := fs.written(); !strings.Contains(got, "pv_gateway,beamline=i03 watches=3i 1000000000") {
		t.Errorf("unexpected body %q", got)
	}
}

func TestClose_DropsLaterWrites(t *testing.T) {
	fs := newFakeServer(t)
	client, err := Connect(context.Background(), testConfig(fs.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsOpen() {
		t.Error("IsOpen() = true after Close()")
	}

	client.WriteConnectRun(ConnectRun{Beamline: "i22"})
	client.Flush()
	if got := fs.written(); got != "" {
		t.Errorf("expected no writes after Close, got %q", got)
	}
}

func TestClose_Unconnected(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
