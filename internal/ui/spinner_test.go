package ui

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerStopWithMsg(t *testing.T) {
	var out lockedBuffer
	s := NewSpinnerTo(&out, "waiting for receipt")
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.StopWithMsg("mined")

	got := out.String()
	assert.Contains(t, got, "waiting for receipt")
	assert.Contains(t, got, "mined\n")
}
