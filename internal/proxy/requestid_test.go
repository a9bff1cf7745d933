package proxy

import (
	"strings"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestIDGenerator_Format(t *testing.T) {
	mock := clock.NewMock()
	g := newIDGenerator(mock)

	id := g.Next()
	parts := strings.Split(id, "_")
	assert.Len(t, parts, 4)
	assert.Equal(t, "req", parts[0])
	assert.Len(t, parts[1], 8)
	assert.Equal(t, "0", parts[2]) // mock 时钟从 Unix 零点开始
	assert.Equal(t, "1", parts[3])
}

func TestIDGenerator_UniqueUnderConcurrency(t *testing.T) {
	// 时间不前进，只靠计数器区分
	g := newIDGenerator(clock.NewMock())

	const workers, perWorker = 8, 1000
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, g.Next())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestIDGenerator_InstancesDiffer(t *testing.T) {
	a := newIDGenerator(clock.NewMock())
	b := newIDGenerator(clock.NewMock())
	assert.NotEqual(t, a.Next(), b.Next())
}
