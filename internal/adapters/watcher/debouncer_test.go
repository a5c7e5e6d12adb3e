package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/watcher"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *batchRecorder) record(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *batchRecorder) get() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}

func TestDebouncer_CoalescesAndSorts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add("/client/src/b.c")
		d.Add("/client/src/a.c")
		d.Add("/client/src/b.c")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, [][]string{{"/client/src/a.c", "/client/src/b.c"}}, rec.get())
	})
}

func TestDebouncer_TimerReset(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add("/client/a")
		time.Sleep(60 * time.Millisecond)
		d.Add("/client/b")
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		assert.Empty(t, rec.get())

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()

		require.Len(t, rec.get(), 1)
		assert.Equal(t, []string{"/client/a", "/client/b"}, rec.get()[0])
	})
}

func TestDebouncer_SeparateBatches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(50*time.Millisecond, rec.record)

		d.Add("/client/a")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		d.Add("/client/b")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, [][]string{{"/client/a"}, {"/client/b"}}, rec.get())
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Flush()
		assert.Empty(t, rec.get())

		d.Add("/client/a")
		d.Flush()
		assert.Equal(t, [][]string{{"/client/a"}}, rec.get())

		// The stopped timer must not deliver the batch again.
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, rec.get(), 1)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var rec batchRecorder
		d := watcher.NewDebouncer(100*time.Millisecond, rec.record)

		d.Add("/client/a")
		d.Stop()
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		assert.Empty(t, rec.get())
	})
}
