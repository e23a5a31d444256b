package scene

import (
	"math"
	"time"

	"github.com/matzehuels/nodecanvas/pkg/graph"
	"github.com/matzehuels/nodecanvas/pkg/observability"
)

const (
	floatAmplitude     = 10.0
	pulseAmplitude     = 0.05
	rotateRate         = 0.01 // radians per frame
	defaultAnimationMs = 2000
)

// onFrame is the per-refresh callback. It updates animations, recomputes
// FPS once per second, draws and schedules the next frame.
func (r *Renderer) onFrame(now time.Time) {
	r.pending = 0
	if r.disposed || r.ctx == nil {
		return
	}
	r.tick(now)
	if err := r.ctx.Draw(r.frame()); err != nil {
		r.logger.Warn("draw frame", "error", err)
	}
	if !r.disposed {
		r.pending = r.surface.RequestFrame(r.onFrame)
	}
}

func (r *Renderer) tick(now time.Time) {
	r.frames++
	if r.start.IsZero() {
		r.start, r.lastFPS = now, now
	} else {
		r.framesSince++
	}
	if elapsed := now.Sub(r.lastFPS); elapsed >= time.Second {
		r.fps = float64(r.framesSince) / elapsed.Seconds()
		r.framesSince = 0
		r.lastFPS = now
		observability.Render().OnFPS(r.fps)
	}
	r.animate(now)
}

// animate applies per-object animations. Each object's clock starts at the
// first frame after it was built. A finished one-shot animation returns the
// object to its base placement; rotation keeps its angle.
func (r *Renderer) animate(now time.Time) {
	for _, k := range r.arena.keys() {
		o, _ := r.arena.get(k)
		if o.anim == nil {
			continue
		}
		if o.born.IsZero() {
			o.born = now
		}
		t := now.Sub(o.born).Seconds()
		period := float64(o.anim.DurationMs) / 1000
		if o.anim.DurationMs <= 0 {
			period = defaultAnimationMs / 1000.0
		}
		if !o.anim.Loop && t > period {
			spin := o.transform.Spin
			o.transform = o.base
			if o.anim.Kind == graph.AnimationRotate {
				o.transform.Spin = spin
			}
			continue
		}
		phase := math.Sin(t * 2 * math.Pi / period)
		switch o.anim.Kind {
		case graph.AnimationFloat:
			o.transform.Position.Y = o.base.Position.Y + floatAmplitude*phase
		case graph.AnimationRotate:
			o.transform.Spin += rotateRate
		case graph.AnimationPulse:
			o.transform.Scale = o.base.Scale * (1 + pulseAmplitude*phase)
		}
	}
}

// animState is the animation progress of a node kept across rebuilds.
type animState struct {
	anim graph.Animation
	born time.Time
	spin float64
}

func (r *Renderer) saveAnimations() map[string]animState {
	out := make(map[string]animState)
	for id, k := range r.nodeKeys {
		o, ok := r.arena.get(k)
		if !ok || o.anim == nil || o.born.IsZero() {
			continue
		}
		out[id] = animState{anim: *o.anim, born: o.born, spin: o.transform.Spin - o.base.Spin}
	}
	return out
}

// restoreAnimations continues the animations of rebuilt nodes whose
// animation did not change.
func (r *Renderer) restoreAnimations(saved map[string]animState) {
	for id, st := range saved {
		k, ok := r.nodeKeys[id]
		if !ok {
			continue
		}
		o, ok := r.arena.get(k)
		if !ok || o.anim == nil || *o.anim != st.anim {
			continue
		}
		o.born = st.born
		o.transform.Spin = o.base.Spin + st.spin
	}
}

// frame assembles the draw list in arena order.
func (r *Renderer) frame() Frame {
	f := Frame{
		Width:      r.width,
		Height:     r.height,
		Camera:     r.camera,
		Lighting:   r.light,
		Background: r.background,
	}
	identity := Transform{Scale: 1}
	for _, k := range r.arena.keys() {
		o, _ := r.arena.get(k)
		for _, p := range o.parts {
			t := identity
			if p.movable {
				t = o.transform
			}
			f.Items = append(f.Items, DrawItem{Geometry: p.geometry, Material: p.material, Transform: t})
		}
	}
	return f
}

// Frame returns the draw list the next frame would submit.
func (r *Renderer) Frame() Frame { return r.frame() }
