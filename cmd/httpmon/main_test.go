package main_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	main "github.com/fwojciec/httpmon/cmd/httpmon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "httpmon.xml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "httpmon")
	assert.Contains(t, stdout.String(), "history")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Usage")
}

func TestMain_Run_MissingConfig(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.xml")}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestMain_Run_InvalidConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `<httpmonitor><deltaFraction>100</deltaFraction></httpmonitor>`)
	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{path}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestMain_Run_HistoryRequiresDatabase(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"history"}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestMain_Run_Monitor(t *testing.T) {
	t.Parallel()

	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.Write([]byte("sensor reading 42"))
	}))
	t.Cleanup(src.Close)

	out := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	path := writeConfig(t, fmt.Sprintf(`
<httpmonitor>
  <destination>file://%s</destination>
  <resource source="%s/data/reading.txt"/>
</httpmonitor>`, out, src.URL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx, []string{"--db", dbPath, path}, &stdout, &stderr)
	}()

	written := filepath.Join(out, "reading.txt")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(written)
		return err == nil && string(data) == "sensor reading 42"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}

	var histOut, histErr bytes.Buffer
	err := main.NewMain().Run(context.Background(), []string{"history", "--db", dbPath}, &histOut, &histErr)
	require.NoError(t, err)
	assert.Contains(t, histOut.String(), src.URL+"/data/reading.txt")
	assert.Contains(t, histOut.String(), ",200,201,")
}
