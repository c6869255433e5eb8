package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aquatrack/aquatrack/internal/testutil"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := New(handler, 0, time.Second, time.Second, time.Second, testutil.DiscardLogger())

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) ShutdownFunc {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	srv.OnShutdown("scheduler", record("scheduler"))
	srv.OnShutdown("realtime", record("realtime"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	if strings.Join(order, ",") != "realtime,scheduler" {
		t.Errorf("shutdown order = %v, want reverse registration", order)
	}
}

func TestServer_ShutdownErrorsAreJoined(t *testing.T) {
	t.Parallel()

	srv := New(http.NotFoundHandler(), 0, time.Second, time.Second, time.Second, testutil.DiscardLogger())
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	srv.OnShutdown("a", func(context.Context) error { return errA })
	srv.OnShutdown("b", func(context.Context) error { return errB })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = srv.Serve(ctx, ln)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Serve = %v, want both component errors", err)
	}
}

func TestServer_Addr(t *testing.T) {
	t.Parallel()

	srv := New(http.NotFoundHandler(), 8080, time.Second, time.Second, time.Second, testutil.DiscardLogger())
	if srv.Addr() != ":8080" {
		t.Errorf("Addr = %q, want :8080", srv.Addr())
	}
}
