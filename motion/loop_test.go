package motion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/depthflow"
	"github.com/gogpu/depthflow/motion"
	"github.com/gogpu/gpucontext"
)

var _ motion.Renderer = (*depthflow.Engine)(nil)

type call struct {
	op     string
	params [4]float32
}

// recorder is a Renderer that cancels its context after a number of frames.
type recorder struct {
	calls  []call
	frames int
	limit  int
	cancel context.CancelFunc
}

func (r *recorder) SetParameters(panX, panY, zoom, height float32) {
	r.calls = append(r.calls, call{op: "set", params: [4]float32{panX, panY, zoom, height}})
}

func (r *recorder) DrawFrame() {
	r.calls = append(r.calls, call{op: "draw"})
	r.frames++
	if r.frames == r.limit {
		r.cancel()
	}
}

func TestLoopSetsThenDraws(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Unix(0, 0)
	ctrl := motion.NewController(motion.WithClock(func() time.Time { return now }))
	ctrl.HandleGesture(gpucontext.GestureEvent{NumPointers: 2, ZoomDelta: 2})

	r := &recorder{limit: 3, cancel: cancel}
	err := motion.Loop(ctx, r, ctrl)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Loop() = %v, want context.Canceled", err)
	}
	if r.frames != 3 {
		t.Fatalf("frames = %d, want 3", r.frames)
	}
	if len(r.calls) != 6 {
		t.Fatalf("calls = %d, want 6", len(r.calls))
	}
	for i, c := range r.calls {
		want := "set"
		if i%2 == 1 {
			want = "draw"
		}
		if c.op != want {
			t.Fatalf("call %d = %s, want %s", i, c.op, want)
		}
		if c.op == "set" && c.params[2] != 2.4 {
			t.Errorf("call %d zoom = %v, want 2.4", i, c.params[2])
		}
	}
}

func TestLoopCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &recorder{cancel: cancel}
	if err := motion.Loop(ctx, r, motion.NewController()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Loop() = %v, want context.Canceled", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(r.calls))
	}
}

func TestLoopStopsOnUninitializedEngine(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	eng := depthflow.New()
	if err := motion.Loop(ctx, eng, motion.NewController()); !errors.Is(err, depthflow.ErrNotReady) {
		t.Fatalf("Loop() = %v, want ErrNotReady", err)
	}
	if ctx.Err() != nil {
		t.Error("Loop waited for the context instead of returning")
	}
}

// failingRenderer reports an error after a number of frames.
type failingRenderer struct {
	recorder
	err error
}

func (r *failingRenderer) Err() error {
	if r.frames >= r.limit {
		return r.err
	}
	return nil
}

func TestLoopStopsWhenRendererFails(t *testing.T) {
	lost := errors.New("torn down")
	r := &failingRenderer{recorder: recorder{limit: 2, cancel: func() {}}, err: lost}

	if err := motion.Loop(context.Background(), r, motion.NewController()); !errors.Is(err, lost) {
		t.Fatalf("Loop() = %v, want %v", err, lost)
	}
	if r.frames != 2 {
		t.Errorf("frames = %d, want 2", r.frames)
	}
}
