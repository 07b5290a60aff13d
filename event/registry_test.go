package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	name   string
	events []Event
	log    *[]string
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
	if r.log != nil {
		*r.log = append(*r.log, r.name)
	}
}

type panicker struct{}

func (panicker) OnEvent(Event) { panic("listener failure") }

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry()
	a, b := &recorder{name: "a"}, &recorder{name: "b"}

	require.False(t, r.Add(nil))
	require.True(t, r.Add(a))
	require.False(t, r.Add(a), "duplicate registration")
	require.True(t, r.Add(b))
	require.Equal(t, 2, r.Len())

	require.True(t, r.Remove(a))
	require.False(t, r.Remove(a))
	require.False(t, r.Remove(nil))
	require.Equal(t, 1, r.Len())

	r.Notify(New(KindStarted, "open"))
	require.Empty(t, a.events)
	require.Len(t, b.events, 1)
}

func TestRegistry_NotifyOrder(t *testing.T) {
	var order []string
	r := NewRegistry()
	for _, name := range []string{"first", "second", "third"} {
		require.True(t, r.Add(&recorder{name: name, log: &order}))
	}

	r.Notify(New(KindStarted, ""))
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRegistry_RemoveDuringDispatch(t *testing.T) {
	r := NewRegistry()
	late := &recorder{name: "late"}

	var self *ListenerFunc
	fn := ListenerFunc(func(e Event) {
		// removal takes effect from the next event
		require.True(t, r.Remove(self))
		require.True(t, r.Remove(late))
	})
	self = &fn

	require.True(t, r.Add(self))
	require.True(t, r.Add(late))

	r.Notify(New(KindStarted, ""))
	require.Len(t, late.events, 1, "snapshot taken before removal still delivers")
	require.Equal(t, 0, r.Len())

	r.Notify(New(KindCompleted, ""))
	require.Len(t, late.events, 1)
}

func TestRegistry_PanickingListener(t *testing.T) {
	r := NewRegistry()
	var recovered []any
	r.OnPanic = func(_ Listener, v any) { recovered = append(recovered, v) }

	after := &recorder{name: "after"}
	require.True(t, r.Add(panicker{}))
	require.True(t, r.Add(after))

	require.NotPanics(t, func() { r.Notify(New(KindWarning, "w")) })
	require.Len(t, after.events, 1)
	require.Equal(t, []any{"listener failure"}, recovered)
}

func TestRegistry_UncomparableListener(t *testing.T) {
	r := NewRegistry()
	fn := ListenerFunc(func(Event) {})

	require.True(t, r.Add(fn))
	require.False(t, r.Add(fn))
	require.False(t, r.Remove(fn))
	require.Equal(t, 1, r.Len())
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	r := NewRegistry()
	stable := &recorder{name: "stable"}
	require.True(t, r.Add(stable))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l := &recorder{}
				r.Add(l)
				r.Notify(New(KindWarning, ""))
				r.Remove(l)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, r.Len())
	require.Len(t, stable.events, 800)
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	require.NotPanics(t, func() { r.Notify(New(KindStarted, "")) })
}

func TestEvent(t *testing.T) {
	e := Block(3, 1000, 250, time.Second)
	require.Equal(t, KindBlockDone, e.Kind)
	require.Equal(t, 3, e.BlockIndex)
	require.InDelta(t, 0.25, e.Ratio(), 1e-9)
	require.Equal(t, "BLOCK_DONE block=3 raw=1000 encoded=250", e.String())

	w := New(KindWarning, "empty input")
	require.Equal(t, -1, w.BlockIndex)
	require.Zero(t, w.Ratio())
	require.Equal(t, "WARNING empty input", w.String())
	require.False(t, w.Time.IsZero())

	require.Equal(t, "Unknown", Kind(0).String())
	require.Equal(t, "ERROR", KindError.String())
}
