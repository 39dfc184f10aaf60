package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/finalframe/internal/config"
	"github.com/danmuck/finalframe/internal/protocol/frame"
	"github.com/danmuck/finalframe/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func execute(t *testing.T, stdin []byte, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetIn(bytes.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--log-level", "off"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, nil, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "ffctl version") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestEncodeThenDecode(t *testing.T) {
	dir := t.TempDir()
	framePath := filepath.Join(dir, "out.ff")

	if _, _, err := execute(t, []byte{11, 21, 31}, "encode", "--out", framePath); err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := os.ReadFile(framePath)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if len(raw) != 15 || raw[1] != 0x0F {
		t.Fatalf("unexpected frame: %x", raw)
	}

	out, stats, err := execute(t, nil, "decode", "--in", framePath, "--hex")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.TrimSpace(out) != hex.EncodeToString([]byte{11, 21, 31}) {
		t.Fatalf("unexpected payload: %q", out)
	}
	if !strings.Contains(stats, "frames_read=1 frames_dropped=0") {
		t.Fatalf("unexpected stats: %q", stats)
	}
}

func TestEncodeEmptyInputFails(t *testing.T) {
	if _, _, err := execute(t, nil, "encode"); err == nil {
		t.Fatalf("expected empty payload error")
	}
}

func TestDecodeCategoryAndDrop(t *testing.T) {
	enc := frame.NewEncoder()
	var stream bytes.Buffer
	for _, p := range [][]byte{{62, 1}, {48, 2}, {62, 3}} {
		if err := enc.WriteFrame(&stream, p); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
	// trailing frame declaring more bytes than remain
	stream.Write([]byte{0x01, 0x00, 0, 0, 0, 0, 0, 0, 62})

	out, stats, err := execute(t, stream.Bytes(), "decode", "--category", "62", "--hex")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	lines := strings.Fields(out)
	if len(lines) != 2 || lines[0] != "3e01" || lines[1] != "3e03" {
		t.Fatalf("unexpected payloads: %q", out)
	}
	if !strings.Contains(stats, "frames_read=3 frames_dropped=1 invalid_size=1") || !strings.Contains(stats, "filtered=1") {
		t.Fatalf("unexpected stats: %q", stats)
	}
}

func TestDecodeRejectsBadCategory(t *testing.T) {
	if _, _, err := execute(t, nil, "decode", "--category", "256"); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffctl.toml")
	if _, _, err := execute(t, nil, "config", "init", "--kind", "multicast", "--output", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	out, _, err := execute(t, nil, "config", "validate", path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, `"ffctl-cat62"`) {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestSendRequiresAddr(t *testing.T) {
	if _, _, err := execute(t, []byte{1}, "send"); err == nil {
		t.Fatalf("expected missing addr error")
	}
}

func TestRunListenStopsOnCancel(t *testing.T) {
	logger := testlog.Start(t)
	cfg := config.DefaultFeedConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MetricsAddr = ""

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runListen(ctx, cfg, logger) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run listen: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("listen did not stop")
	}
}

func TestRunListenServesMetricsInReleaseMode(t *testing.T) {
	logger := testlog.Start(t)
	gin.SetMode(gin.DebugMode)
	cfg := config.DefaultFeedConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runListen(ctx, cfg, logger) }()

	time.Sleep(50 * time.Millisecond)
	if gin.Mode() != gin.ReleaseMode {
		t.Fatalf("expected gin release mode, got %s", gin.Mode())
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run listen: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("listen did not stop")
	}
}
