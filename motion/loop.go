package motion

import "context"

// Renderer is the part of an engine that Loop drives.
// *depthflow.Engine satisfies it.
type Renderer interface {
	SetParameters(panX, panY, zoom, height float32)
	DrawFrame()
}

// readiness is implemented by renderers that can report they are unable
// to draw, such as *depthflow.Engine through Err.
type readiness interface {
	Err() error
}

// Loop feeds the controller's camera to r and draws a frame, repeatedly,
// until ctx is done. It returns ctx.Err().
//
// Start Loop only once the renderer is initialized. When r has an Err
// method Loop checks it before every frame and returns its error as soon
// as it is non-nil, so an uninitialized or torn-down engine ends the loop
// instead of spinning on no-op frames.
//
// Pacing comes from the renderer: with a FIFO swapchain DrawFrame blocks
// until the display accepts the next image.
func Loop(ctx context.Context, r Renderer, c *Controller) error {
	ready, _ := r.(readiness)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if ready != nil {
			if err := ready.Err(); err != nil {
				return err
			}
		}
		r.SetParameters(c.Step())
		r.DrawFrame()
	}
}
