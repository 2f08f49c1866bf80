package hostinfo

import (
	"bytes"
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollect(t *testing.T) {
	info := Collect()
	assert.Equal(t, runtime.GOMAXPROCS(0), info.GOMAXPROCS)
	assert.NotNil(t, info.SIMD)
	assert.GreaterOrEqual(t, info.LogicalCores, 0)
}

func TestLogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("host", "cpu", Info{Brand: "Test CPU", PhysicalCores: 4, LogicalCores: 8, GOMAXPROCS: 8, SIMD: []string{"AVX2"}})

	out := buf.String()
	assert.Contains(t, out, `cpu.brand="Test CPU"`)
	assert.Contains(t, out, "cpu.cores=4")
	assert.Contains(t, out, "cpu.threads=8")
}
