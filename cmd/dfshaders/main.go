// Command dfshaders writes the SPIR-V shader binaries of a depth-flow asset
// set.
//
// The full-screen vertex stage is compiled from the embedded WGSL source.
// A fragment stage may be compiled from a WGSL file with -frag; otherwise
// an existing shaders/depthflow.frag.spv is only validated.
//
//	dfshaders -out assets
//	dfshaders -out assets -frag depthflow.wgsl
//	dfshaders -out assets -check
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gogpu/depthflow/asset"
	"github.com/gogpu/depthflow/shader"
)

func main() {
	var (
		out   = flag.String("out", "assets", "asset directory")
		frag  = flag.String("frag", "", "WGSL fragment source to compile")
		check = flag.Bool("check", false, "only validate the existing binaries")
	)
	flag.Parse()

	var err error
	if *check {
		err = validate(*out)
	} else {
		err = build(*out, *frag)
	}
	if err != nil {
		log.Fatalf("dfshaders: %v", err)
	}
}

// build compiles the vertex stage, and the fragment stage when fragSrc is
// set, into dir.
func build(dir, fragSrc string) error {
	vert, err := shader.Fullscreen()
	if err != nil {
		return fmt.Errorf("vertex: %w", err)
	}
	if err := write(dir, asset.NameVertexShader, vert); err != nil {
		return err
	}

	if fragSrc == "" {
		return validateFile(dir, asset.NameFragmentShader, true)
	}
	src, err := os.ReadFile(fragSrc)
	if err != nil {
		return err
	}
	frag, err := shader.CompileWGSL(string(src))
	if err != nil {
		return fmt.Errorf("fragment %s: %w", fragSrc, err)
	}
	return write(dir, asset.NameFragmentShader, frag)
}

// validate checks both binaries in dir.
func validate(dir string) error {
	return errors.Join(
		validateFile(dir, asset.NameVertexShader, false),
		validateFile(dir, asset.NameFragmentShader, false),
	)
}

// validateFile checks one binary. A missing file is an error unless
// optional is set, in which case it is only reported.
func validateFile(dir, name string, optional bool) error {
	path := filepath.Join(dir, filepath.FromSlash(name))
	spv, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && optional {
		log.Printf("No %s; the engine will fail to initialize until one is added", path)
		return nil
	}
	if err != nil {
		return err
	}
	if err := shader.Validate(spv); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("OK %s (%d bytes)", path, len(spv))
	return nil
}

func write(dir, name string, spv []byte) error {
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, spv, 0o644); err != nil {
		return err
	}
	log.Printf("Wrote %s (%d bytes)", path, len(spv))
	return nil
}
