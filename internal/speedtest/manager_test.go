package speedtest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkjaer/netspeed/internal/config"
	"github.com/tkjaer/netspeed/internal/menu"
	"github.com/tkjaer/netspeed/internal/shared"
	"github.com/tkjaer/netspeed/internal/update"
)

// newSpeedServer answers HEAD for latency and streams size bytes on GET
func newSpeedServer(t *testing.T, size int) *httptest.Server {
	t.Helper()
	payload := bytes.Repeat([]byte{0x5a}, size)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testArgs(srv *httptest.Server) config.Args {
	return config.Args{
		Run:            true,
		PingTarget:     srv.URL,
		PingCount:      3,
		PingTimeout:    time.Second,
		PingPenalty:    100 * time.Millisecond,
		Servers:        []string{srv.URL + "/down"},
		Duration:       time.Second,
		ConnectTimeout: time.Second,
		DNSTTL:         time.Minute,
		LogLevel:       "error",
	}
}

func TestManagerSingleRun(t *testing.T) {
	srv := newSpeedServer(t, 512*1024)
	args := testArgs(srv)
	args.JsonFile = filepath.Join(t.TempDir(), "reports.json")

	var out bytes.Buffer
	m, err := NewManager(args, strings.NewReader(""), &out)
	require.NoError(t, err)
	require.NoError(t, m.Run())

	text := out.String()
	assert.Contains(t, text, "PING")
	assert.Contains(t, text, "DOWNLOAD")
	assert.Contains(t, text, "UPLOAD")

	f, err := os.Open(args.JsonFile)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var report shared.SpeedTestReport
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &report))

	assert.Equal(t, srv.URL+"/down", report.DownloadURL)
	assert.Equal(t, int64(512*1024), report.BytesReceived)
	assert.Greater(t, report.DownloadMbps, 0.0)
	assert.InDelta(t, EstimateUpload(report.DownloadMbps), report.UploadMbps, 1e-9)
	assert.True(t, report.UploadEstimated)
	assert.NotEmpty(t, report.ID)
	assert.False(t, scanner.Scan(), "exactly one report line")
}

func TestManagerStoppedBeforeRun(t *testing.T) {
	srv := newSpeedServer(t, 1024)

	m, err := NewManager(testArgs(srv), strings.NewReader(""), io.Discard)
	require.NoError(t, err)

	m.Stop()
	m.Stop()
	assert.ErrorIs(t, m.Run(), context.Canceled)
}

func TestManagerBadJSONFile(t *testing.T) {
	srv := newSpeedServer(t, 1024)
	args := testArgs(srv)
	args.JsonFile = filepath.Join(t.TempDir(), "missing", "reports.json")

	_, err := NewManager(args, strings.NewReader(""), io.Discard)
	assert.Error(t, err)
}

// scriptedPrompt returns the given choices in order
func scriptedPrompt(choices ...menu.Choice) func(context.Context, io.Reader, io.Writer) (menu.Choice, error) {
	return func(context.Context, io.Reader, io.Writer) (menu.Choice, error) {
		if len(choices) == 0 {
			return menu.ChoiceExit, nil
		}
		c := choices[0]
		choices = choices[1:]
		return c, nil
	}
}

func TestManagerMenuLoop(t *testing.T) {
	srv := newSpeedServer(t, 64*1024)
	args := testArgs(srv)
	args.Run = false

	var out bytes.Buffer
	m, err := NewManager(args, strings.NewReader(""), &out)
	require.NoError(t, err)

	var pauses int
	var installs int
	m.prompt = scriptedPrompt(menu.ChoiceVersion, menu.ChoiceUpdate, menu.ChoiceRun, menu.ChoiceExit)
	m.pauseFunc = func(io.Reader, io.Writer) error {
		pauses++
		return nil
	}
	m.updateDeps = update.Dependencies{
		RunCommand: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			installs++
			return nil, errors.New("offline")
		},
	}

	require.NoError(t, m.Run())

	text := out.String()
	assert.Contains(t, text, "VERSION INFO")
	assert.Contains(t, text, "Update failed")
	assert.Contains(t, text, "DOWNLOAD")
	assert.Contains(t, text, "Goodbye!")
	assert.Equal(t, 3, pauses, "pause after version, update and run")
	assert.Equal(t, 1, installs)
}

func TestManagerMenuCancel(t *testing.T) {
	srv := newSpeedServer(t, 1024)
	args := testArgs(srv)
	args.Run = false

	m, err := NewManager(args, strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	m.prompt = scriptedPrompt(menu.ChoiceCancel)

	assert.ErrorIs(t, m.Run(), context.Canceled)
}

func TestManagerPauseInterrupted(t *testing.T) {
	srv := newSpeedServer(t, 1024)
	args := testArgs(srv)
	args.Run = false

	m, err := NewManager(args, strings.NewReader(""), io.Discard)
	require.NoError(t, err)

	block := make(chan struct{})
	defer close(block)
	m.prompt = scriptedPrompt(menu.ChoiceVersion)
	m.pauseFunc = func(io.Reader, io.Writer) error {
		<-block
		return nil
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		m.Stop()
	}()

	done := make(chan error, 1)
	go func() { done <- m.Run() }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
