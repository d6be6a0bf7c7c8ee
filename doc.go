// Package depthflow renders the depth-flow parallax effect on a native
// window.
//
// # Overview
//
// A color image, its depth map, a background layer with its own depth and
// a subject mask are sampled by a single full-screen fragment pass. The
// host drives the camera with pan, zoom and height; the engine adds a
// strictly increasing time value every frame.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/depthflow"
//	    "github.com/gogpu/depthflow/asset"
//	    "github.com/gogpu/depthflow/gpucore"
//	)
//
//	e := depthflow.New()
//	if !e.Initialize(asset.Dir("assets"), gpucore.XlibWindow{Display: dpy, Window: win}) {
//	    log.Fatal(e.Err())
//	}
//	defer e.Teardown()
//
//	for running {
//	    e.SetParameters(panX, panY, zoom, 0.05)
//	    e.DrawFrame()
//	}
//
// Package motion provides a ready-made camera controller for touch,
// pinch and tilt input, and motion.Loop runs the loop above until a
// context is canceled.
//
// # Assets
//
// The asset provider supplies image.png, depth.png, image_bg.png,
// depth_bg.png and subject_mask.png, plus the shader binaries
// shaders/quad.vert.spv and shaders/depthflow.frag.spv. Missing or
// undecodable images are replaced by 1x1 placeholder textures; missing
// shaders make Initialize fail. An optional config.json adjusts the
// starting parameters (see asset.Scene).
//
// # Backends
//
// Devices come from the backend registry. The Vulkan backend is linked in
// by this package; backend/noop is a headless recording backend for tests.
// The DEPTHFLOW_BACKEND environment variable overrides the default choice.
//
// # Frame model
//
// Each DrawFrame waits for the previous frame's fence, acquires an image,
// uploads the parameters, records one render pass with a three-vertex
// draw, submits, presents and waits for the queue to go idle. At most one
// frame of GPU work is in flight at any time.
//
// # Concurrency
//
// Engine methods are serialized by a mutex and run to completion before
// returning. Frames are not pipelined.
package depthflow

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
