package logging

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLogger_KeyValueLine(t *testing.T) {
	buf := captureLog(t)

	ctx := WithRequestID(context.Background(), "req-42")
	FromContext(ctx, "sync").Warnf("update_project", "falling back id=%s", "p-1")

	line := buf.String()
	assert.Contains(t, line, "[warn] component=sync request_id=req-42 operation=update_project falling back id=p-1")
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := captureLog(t)
	SetLevel(LevelWarn)

	l := New("cache")
	l.Infof("list", "hidden")
	l.Debugf("list", "hidden")
	l.Errorf("list", "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[error] component=cache operation=list shown")
}

func TestLogger_WithKeepsComponent(t *testing.T) {
	buf := captureLog(t)

	base := New("autosave")
	base.With(WithRequestID(context.Background(), "abc")).Infof("flush", "ok")
	assert.Contains(t, buf.String(), "component=autosave request_id=abc")

	assert.Same(t, base, base.With(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestSetup_FileSink(t *testing.T) {
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	path := filepath.Join(t.TempDir(), "sitesync.log")
	closer := Setup(Options{Level: "info", File: path})

	New("test").Infof("setup", "written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "operation=setup written to file")
}
