package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// run registers metrics on the default registry, so it is invoked once per
// test binary.
func TestRun_LoadFailureExitsWithoutServing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_SOURCE", filepath.Join(dir, "missing", "owid.csv"))
	t.Setenv("OUTPUT_DIR", dir)
	t.Setenv("HTTP_ADDR", "127.0.0.1:0")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")

	done := make(chan int, 1)
	go func() { done <- run() }()

	select {
	case code := <-done:
		assert.Equal(t, 1, code)
	case <-time.After(5 * time.Second):
		t.Fatal("run kept going after the dataset failed to load")
	}
}
