package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopStoreHooks{}
	s.OnMutation("add_node", 3, 2)
	s.OnHistory("undo", 1, 1)

	l := NoopLayoutHooks{}
	l.OnLayoutStart("force", 10)
	l.OnLayoutComplete("force", 10, time.Millisecond)

	cd := NoopCodecHooks{}
	cd.OnExport(ctx, "svg", 1024, time.Millisecond, nil)
	cd.OnImport(ctx, "mermaid", 4, 1, time.Millisecond, nil)

	r := NoopRenderHooks{}
	r.OnSceneBuilt(12, time.Millisecond)
	r.OnFPS(60)
	r.OnDispose(24)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "artifact")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := Codec().(NoopCodecHooks); !ok {
		t.Error("Codec() should return NoopCodecHooks by default")
	}
	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	customLayout := &testLayoutHooks{}
	SetLayoutHooks(customLayout)
	if Layout() != customLayout {
		t.Error("SetLayoutHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Reset() should restore NoopStoreHooks")
	}
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Reset() should restore NoopLayoutHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testStoreHooks{}
	SetStoreHooks(custom)
	SetStoreHooks(nil)
	if Store() != custom {
		t.Error("SetStoreHooks(nil) should keep the previous hooks")
	}
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &testStoreHooks{}
	SetStoreHooks(h)
	Store().OnMutation("remove_node", 1, 0)
	Store().OnMutation("add_edge", 2, 1)

	if h.mutations != 2 {
		t.Errorf("mutations = %d, want 2", h.mutations)
	}
	if h.lastOp != "add_edge" {
		t.Errorf("lastOp = %q, want add_edge", h.lastOp)
	}
}

type testStoreHooks struct {
	NoopStoreHooks
	mutations int
	lastOp    string
}

func (h *testStoreHooks) OnMutation(op string, _, _ int) {
	h.mutations++
	h.lastOp = op
}

type testLayoutHooks struct{ NoopLayoutHooks }

type testCacheHooks struct{ NoopCacheHooks }
