package snowflake

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNextBatch_BasicFunctionality(t *testing.T) {
	gen, err := New(Config{GeneratorID: 42, Clock: newStepClock(testNow, 50)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ids, err := gen.NextBatch(context.Background(), 10000)
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	if len(ids) != 10000 {
		t.Fatalf("NextBatch() returned %d IDs, want 10000", len(ids))
	}

	for i, id := range ids {
		if i > 0 && id <= ids[i-1] {
			t.Fatalf("IDs not monotonic at %d: %d <= %d", i, id, ids[i-1])
		}
		if c := gen.Decode(id); c.GeneratorID != 42 {
			t.Fatalf("GeneratorID = %d, want 42", c.GeneratorID)
		}
	}
}

func TestNextBatch_NonPositiveCount(t *testing.T) {
	gen, _ := newTestGenerator(t, 1, LayoutDefault)

	for _, count := range []int{0, -1, -100} {
		ids, err := gen.NextBatch(context.Background(), count)
		if err != nil {
			t.Errorf("NextBatch(%d) error = %v", count, err)
		}
		if ids == nil || len(ids) != 0 {
			t.Errorf("NextBatch(%d) = %v, want empty non-nil slice", count, ids)
		}
	}
}

func TestNextBatch_ContinuesSingleSequence(t *testing.T) {
	gen, _ := newTestGenerator(t, 1, LayoutDefault)

	first := gen.MustNextID()
	batch, err := gen.NextBatch(context.Background(), 5)
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	last := gen.MustNextID()

	prev := first
	for _, id := range append(batch, last) {
		if id != prev+1 {
			t.Fatalf("got %d after %d, want consecutive IDs on a frozen clock", id, prev)
		}
		prev = id
	}
}

func TestNextBatch_ContextCanceled(t *testing.T) {
	gen, _ := newTestGenerator(t, 1, LayoutDefault)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ids, err := gen.NextBatch(ctx, 1000)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("NextBatch() error = %v, want context.Canceled", err)
	}
	if len(ids) != 0 {
		t.Errorf("NextBatch() returned %d IDs, want 0", len(ids))
	}
}

func TestNextBatch_CanceledMidBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// one read for New, then one read per ID; cancel while issuing ID 148
	var reads atomic.Int64
	clock := ClockFunc(func() int64 {
		n := reads.Add(1)
		if n == 150 {
			cancel()
		}
		return testNow + n
	})

	gen, err := New(Config{Clock: clock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ids, err := gen.NextBatch(ctx, 1000)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("NextBatch() error = %v, want context.Canceled", err)
	}
	// the context is only checked every batchCancelCheckInterval IDs
	if len(ids) != 2*batchCancelCheckInterval {
		t.Errorf("NextBatch() returned %d IDs, want %d", len(ids), 2*batchCancelCheckInterval)
	}
	if m := gen.Metrics(); m.Generated != int64(len(ids)) {
		t.Errorf("Metrics().Generated = %d, want %d", m.Generated, len(ids))
	}
}

func TestNextBatch_ClockRegressionReturnsPartial(t *testing.T) {
	var reads atomic.Int64
	clock := ClockFunc(func() int64 {
		n := reads.Add(1)
		if n > 50 {
			return testNow
		}
		return testNow + n
	})

	gen, err := New(Config{Clock: clock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ids, err := gen.NextBatch(context.Background(), 100)
	if !IsClockRegression(err) {
		t.Fatalf("NextBatch() error = %v, want clock regression", err)
	}
	if len(ids) != 49 {
		t.Errorf("NextBatch() returned %d IDs, want 49", len(ids))
	}
	if m := gen.Metrics(); m.Generated != 49 || m.ClockRegressions != 1 {
		t.Errorf("Metrics() = %+v, want 49 generated and 1 regression", m)
	}
	if gen.Err() == nil {
		t.Error("Err() = nil after regression inside a batch")
	}
}

func TestNextBatch_SequenceExhaustion(t *testing.T) {
	layout := Layout{TimestampBits: 41, GeneratorIDBits: 10, SequenceBits: 4}
	gen, err := New(Config{Layout: layout, Clock: newStepClock(testNow, 1000)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ids, err := gen.NextBatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}

	seen := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("Duplicate ID detected: %d", id)
		}
		seen[id] = true
		if seq := gen.Decode(id).Sequence; seq > layout.MaxSequence() {
			t.Fatalf("Sequence %d exceeds %d", seq, layout.MaxSequence())
		}
	}
	if m := gen.Metrics(); m.SequenceExhausted == 0 {
		t.Error("SequenceExhausted = 0, want at least one exhaustion")
	}
}

func TestNextBatch_Concurrent(t *testing.T) {
	gen, err := New(DefaultConfig(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const workers = 10
	const batchSize = 1000

	var mu sync.Mutex
	seen := make(map[ID]bool, workers*batchSize*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids, err := gen.NextBatch(context.Background(), batchSize)
			if err != nil {
				t.Errorf("NextBatch() error = %v", err)
				return
			}
			single, err := gen.NextID()
			if err != nil {
				t.Errorf("NextID() error = %v", err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			for _, id := range append(ids, single) {
				if seen[id] {
					t.Errorf("Duplicate ID detected: %d", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	if want := workers * (batchSize + 1); len(seen) != want {
		t.Errorf("got %d unique IDs, want %d", len(seen), want)
	}
}

func BenchmarkNextBatch_100(b *testing.B) {
	gen, err := New(DefaultConfig(1))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = gen.NextBatch(ctx, 100)
	}
}

func BenchmarkNextBatch_1000(b *testing.B) {
	gen, err := New(DefaultConfig(1))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = gen.NextBatch(ctx, 1000)
	}
}

func BenchmarkNextIDLoop_1000(b *testing.B) {
	gen, err := New(DefaultConfig(1))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 1000; j++ {
			_, _ = gen.NextID()
		}
	}
}
