package pump

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TaciturnJian/bytecomm/internal/testutil/testlog"
)

func TestMonitorLifecycle(t *testing.T) {
	testlog.Start(t)
	m := NewStrictMonitor("reader")
	if m.IsDone() {
		t.Fatalf("new monitor should be running")
	}
	m.Interrupt()
	if !m.IsDone() {
		t.Fatalf("interrupt should stop monitor")
	}
	m.Reset()
	if m.IsDone() {
		t.Fatalf("reset should restart monitor")
	}
	m.HandleError()
	if !m.IsDone() {
		t.Fatalf("strict monitor should stop on first error")
	}
	if m.Errors() != 1 {
		t.Fatalf("unexpected error tally: %d", m.Errors())
	}
	m.Reset()
	if m.Errors() != 0 {
		t.Fatalf("reset should clear error tally")
	}
}

func TestTolerantMonitorStopsAtLimit(t *testing.T) {
	testlog.Start(t)
	m := NewTolerantMonitor("writer", 3)
	m.HandleError()
	m.HandleError()
	if m.IsDone() {
		t.Fatalf("stopped before reaching limit")
	}
	m.HandleError()
	if !m.IsDone() {
		t.Fatalf("expected stop at limit")
	}
	snap := m.Snapshot()
	if snap.Name != "writer" || snap.Policy != "tolerant" || snap.Running || snap.Errors != 3 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRetryMonitorIgnoresErrors(t *testing.T) {
	testlog.Start(t)
	m := NewRetryMonitor("provider")
	for i := 0; i < 100; i++ {
		m.HandleError()
	}
	if m.IsDone() {
		t.Fatalf("retry monitor stopped on errors")
	}
	m.Interrupt()
	if !m.IsDone() {
		t.Fatalf("retry monitor ignored interrupt")
	}
}

func TestMailboxSingleSlot(t *testing.T) {
	testlog.Start(t)
	box := NewMailbox[int]()
	if _, ok := box.TryGet(); ok {
		t.Fatalf("empty mailbox yielded an item")
	}
	box.TrySet(1)
	box.TrySet(2)
	if !box.Full() {
		t.Fatalf("mailbox should report a waiting item")
	}
	got, ok := box.TryGet()
	if !ok || got != 2 {
		t.Fatalf("expected last write to win, got=%d ok=%v", got, ok)
	}
	if _, ok := box.TryGet(); ok || box.Full() {
		t.Fatalf("mailbox should be drained")
	}
}

func TestMailboxConcurrentAccess(t *testing.T) {
	testlog.Start(t)
	box := NewMailbox[int]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(v int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				box.TrySet(v)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = box.TryGet()
			}
		}()
	}
	wg.Wait()
}

type recorder[T any] struct {
	mu    sync.Mutex
	items []T
}

func (r *recorder[T]) SetItem(_ context.Context, item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

func (r *recorder[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.items...)
}

func sliceSource(items ...int) Source[int] {
	var mu sync.Mutex
	return SourceFunc[int](func(context.Context) (int, bool) {
		mu.Lock()
		defer mu.Unlock()
		if len(items) == 0 {
			return 0, false
		}
		v := items[0]
		items = items[1:]
		return v, true
	})
}

func TestPumpDeliversUntilStrictFailure(t *testing.T) {
	testlog.Start(t)
	dst := &recorder[int]{}
	p := &Pump[int]{
		Name:        "test",
		Source:      sliceSource(1, 2, 3),
		Destination: dst,
		Monitor:     NewStrictMonitor("test"),
		MinInterval: time.Millisecond,
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	p.Run(context.Background())

	got := dst.snapshot()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("unexpected delivered items: %v", got)
	}
	if !p.Monitor.IsDone() {
		t.Fatalf("monitor should be done after source failure")
	}
}

func TestPumpHonorsMinInterval(t *testing.T) {
	testlog.Start(t)
	interval := 5 * time.Millisecond
	p := &Pump[int]{
		Name:        "paced",
		Source:      sliceSource(1, 2, 3),
		Destination: &recorder[int]{},
		Monitor:     NewStrictMonitor("paced"),
		MinInterval: interval,
	}
	start := time.Now()
	p.Run(context.Background())
	// three deliveries plus the failing fourth attempt
	if elapsed := time.Since(start); elapsed < 4*interval {
		t.Fatalf("pump ran faster than its interval: %v", elapsed)
	}
}

func TestPumpStopsOnContextCancel(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	monitor := NewRetryMonitor("retry")
	p := &Pump[int]{
		Name:        "retry",
		Source:      sliceSource(),
		Destination: &recorder[int]{},
		Monitor:     monitor,
		MinInterval: time.Millisecond,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	time.Sleep(10 * time.Millisecond)
	if monitor.Errors() == 0 {
		t.Fatalf("expected retried failures before cancel")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pump did not stop after cancel")
	}
	if !monitor.IsDone() {
		t.Fatalf("cancel should interrupt the monitor")
	}
}

func TestPumpStopsOnExternalInterrupt(t *testing.T) {
	testlog.Start(t)
	monitor := NewRetryMonitor("interrupted")
	p := &Pump[int]{
		Name:        "interrupted",
		Source:      sliceSource(),
		Destination: &recorder[int]{},
		Monitor:     monitor,
		MinInterval: time.Millisecond,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(context.Background())
	}()
	monitor.Interrupt()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pump did not stop after interrupt")
	}
}

func TestPumpValidate(t *testing.T) {
	testlog.Start(t)
	cases := []*Pump[int]{
		nil,
		{Name: "no-source", Destination: &recorder[int]{}, Monitor: NewStrictMonitor("m")},
		{Name: "no-dest", Source: sliceSource(), Monitor: NewStrictMonitor("m")},
		{Name: "no-monitor", Source: sliceSource(), Destination: &recorder[int]{}},
		{Name: "negative", Source: sliceSource(), Destination: &recorder[int]{}, Monitor: NewStrictMonitor("m"), MinInterval: -1},
	}
	for i, p := range cases {
		if err := p.Validate(); !errors.Is(err, ErrNotFunctional) {
			t.Fatalf("case %d: expected ErrNotFunctional, got %v", i, err)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	testlog.Start(t)

	cases := map[string]Policy{
		"strict":   PolicyStrict,
		" Retry ":  PolicyRetry,
		"TOLERANT": PolicyTolerant,
	}
	for raw, want := range cases {
		got, err := ParsePolicy(raw)
		if err != nil || got != want {
			t.Fatalf("ParsePolicy(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParsePolicy("sometimes"); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestPumpSkipsAttemptAfterInterruptDuringSleep(t *testing.T) {
	testlog.Start(t)
	monitor := NewRetryMonitor("sleepy")
	var mu sync.Mutex
	calls := 0
	p := &Pump[int]{
		Name: "sleepy",
		Source: SourceFunc[int](func(context.Context) (int, bool) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return 1, true
		}),
		Destination: &recorder[int]{},
		Monitor:     monitor,
		MinInterval: 50 * time.Millisecond,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(context.Background())
	}()
	time.Sleep(10 * time.Millisecond)
	monitor.Interrupt()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected no source attempts after interrupt, got %d", calls)
	}
}
