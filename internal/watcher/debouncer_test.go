package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveBatch(t *testing.T, ch <-chan []FileEvent, timeout time.Duration) []FileEvent {
	t.Helper()
	select {
	case batch, ok := <-ch:
		require.True(t, ok, "channel closed")
		return batch
	case <-time.After(timeout):
		t.Fatal("timeout waiting for batch")
		return nil
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: a single event is added
	d.Add(FileEvent{Path: "a.txt", Operation: OpModify, Timestamp: time.Now()})

	// Then: the event passes through after the debounce window
	batch := receiveBatch(t, d.Output(), time.Second)
	require.Len(t, batch, 1)
	assert.Equal(t, "a.txt", batch[0].Path)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_BurstForSameFile_Coalesces(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	for range 5 {
		d.Add(FileEvent{Path: "a.txt", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(10 * time.Millisecond)
	}

	batch := receiveBatch(t, d.Output(), time.Second)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_BatchSortedByPath(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "c.txt", Operation: OpModify})
	d.Add(FileEvent{Path: "a.txt", Operation: OpModify})
	d.Add(FileEvent{Path: "b.txt", Operation: OpDelete})

	batch := receiveBatch(t, d.Output(), time.Second)
	require.Len(t, batch, 3)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"},
		[]string{batch[0].Path, batch[1].Path, batch[2].Path})
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name     string
		prev     Operation
		next     Operation
		wantKeep bool
		wantOp   Operation
	}{
		{"create then modify stays create", OpCreate, OpModify, true, OpCreate},
		{"create then delete cancels", OpCreate, OpDelete, false, 0},
		{"modify then delete is delete", OpModify, OpDelete, true, OpDelete},
		{"delete then create is modify", OpDelete, OpCreate, true, OpModify},
		{"modify then modify is modify", OpModify, OpModify, true, OpModify},
		{"modify then rename is rename", OpModify, OpRename, true, OpRename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, keep := coalesce(
				FileEvent{Path: "a", Operation: tt.prev},
				FileEvent{Path: "a", Operation: tt.next},
			)
			assert.Equal(t, tt.wantKeep, keep)
			if keep {
				assert.Equal(t, tt.wantOp, merged.Operation)
			}
		})
	}
}

func TestDebouncer_CancelledEventsEmitNothing(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "tmp.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "tmp.txt", Operation: OpDelete})

	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch: %v", batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_StopIsIdempotentAndClosesOutput(t *testing.T) {
	d := NewDebouncer(time.Hour)
	d.Add(FileEvent{Path: "a.txt", Operation: OpModify})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "b.txt", Operation: OpModify})

	_, ok := <-d.Output()
	assert.False(t, ok)
}
