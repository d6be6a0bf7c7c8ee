// Package motion turns touch, pinch and device-tilt input into the camera
// values a depth-flow renderer consumes each frame.
//
// A Controller accumulates input from gpucontext pointer and gesture events
// and from orientation samples. Step combines the touch offset, the tilt
// offset and an idle breathing sway into a pan that stays inside a fixed
// window, so the view never drifts past the image edge however far the
// user zooms.
//
// Loop drives a renderer with the controller until its context is done:
//
//	ctrl := motion.NewController()
//	source.OnPointer(ctrl.HandlePointer)
//	source.OnGesture(ctrl.HandleGesture)
//	go motion.Loop(ctx, eng, ctrl)
package motion
