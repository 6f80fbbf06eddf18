package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate("drag")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"drag", "sse"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			// NanoID default length is 21.
			assert.Len(t, id, len(prefix)+1+21)
		})
	}
}

func TestSequence_SameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	seq := NewSequence(func() time.Time { return fixed })

	a := seq.Next()
	b := seq.Next()
	c := seq.Next()

	assert.Equal(t, int64(1_700_000_000_000), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)
}

func TestSequence_ObserveAheadOfClock(t *testing.T) {
	seq := NewSequence(func() time.Time { return time.UnixMilli(100) })
	seq.Observe(5000)
	seq.Observe(10) // lower values never lower the mark

	assert.Equal(t, int64(5001), seq.Next())
}

func TestSequence_Concurrent(t *testing.T) {
	seq := NewSequence(nil)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for range 50 {
		wg.Go(func() {
			v := seq.Next()
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		})
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}
