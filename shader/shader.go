// Package shader validates SPIR-V binaries and compiles WGSL sources for
// the depth-flow pipeline.
//
// The fragment program is a prebuilt SPIR-V artifact shipped with the
// assets. The vertex stage is a full-screen triangle that can either be
// loaded from the assets or compiled from the embedded FullscreenWGSL.
package shader

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/spirv"
)

// Magic is the first word of every SPIR-V module.
const Magic = 0x07230203

// headerSize is the SPIR-V header: magic, version, generator, bound, schema.
const headerSize = 5 * 4

// ErrInvalidSPIRV is returned when a binary is not a SPIR-V module.
var ErrInvalidSPIRV = errors.New("shader: invalid SPIR-V")

// FullscreenWGSL is the vertex stage drawn with three vertices and no
// vertex buffers. Its entry point is "main".
//
//go:embed quad.wgsl
var FullscreenWGSL string

// Validate checks that spv looks like a SPIR-V 1.x module: whole 32-bit
// words, a complete header and the little-endian magic number.
func Validate(spv []byte) error {
	if len(spv)%4 != 0 {
		return fmt.Errorf("%w: size %d is not a multiple of 4", ErrInvalidSPIRV, len(spv))
	}
	if len(spv) < headerSize {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidSPIRV, len(spv))
	}
	if m := binary.LittleEndian.Uint32(spv); m != Magic {
		return fmt.Errorf("%w: magic %#08x", ErrInvalidSPIRV, m)
	}
	if major := spv[6]; major != 1 {
		return fmt.Errorf("%w: version %d.%d", ErrInvalidSPIRV, major, spv[5])
	}
	return nil
}

// CompileWGSL compiles WGSL source to SPIR-V 1.0, the version every
// Vulkan 1.0 driver accepts.
func CompileWGSL(src string) ([]byte, error) {
	spv, err := naga.CompileWithOptions(src, naga.CompileOptions{
		SPIRVVersion: spirv.Version1_0,
		Validate:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	if err := Validate(spv); err != nil {
		return nil, err
	}
	return spv, nil
}

var fullscreen = sync.OnceValues(func() ([]byte, error) {
	return CompileWGSL(FullscreenWGSL)
})

// Fullscreen returns the compiled full-screen vertex stage. The result is
// computed once and shared; callers must not modify it.
func Fullscreen() ([]byte, error) {
	return fullscreen()
}
