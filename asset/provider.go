// Package asset provides the asset namespace read by the depth-flow engine:
// providers that return raw bytes by logical name, the pixel decoder, and
// the optional scene configuration file.
package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
)

// Logical asset names.
const (
	NameImage            = "image.png"
	NameDepth            = "depth.png"
	NameBackgroundImage  = "image_bg.png"
	NameBackgroundDepth  = "depth_bg.png"
	NameSubjectMask      = "subject_mask.png"
	NameVertexShader     = "shaders/quad.vert.spv"
	NameFragmentShader   = "shaders/depthflow.frag.spv"
	NameScene            = "config.json"
	defaultMaxAssetBytes = 256 << 20
)

// ErrNotExist is reported (wrapped) when a provider has no asset by that name.
var ErrNotExist = errors.New("asset: does not exist")

// ErrTooLarge is returned when an asset exceeds the provider's size limit.
var ErrTooLarge = errors.New("asset: too large")

// Provider returns the raw bytes of a named asset.
//
// Names are slash-separated and relative. Missing assets must produce an
// error for which errors.Is(err, ErrNotExist) holds. Open may be called
// from several goroutines at once.
type Provider interface {
	Open(name string) ([]byte, error)
}

// FSProvider serves assets from an fs.FS.
type FSProvider struct {
	fsys     fs.FS
	maxBytes int64
}

// FS returns a provider reading from fsys.
func FS(fsys fs.FS) *FSProvider {
	return &FSProvider{fsys: fsys, maxBytes: defaultMaxAssetBytes}
}

// Dir returns a provider reading from a directory on disk.
func Dir(dir string) *FSProvider {
	return FS(os.DirFS(dir))
}

// Open implements Provider.
func (p *FSProvider) Open(name string) ([]byte, error) {
	name = path.Clean(name)
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("asset: invalid name %q: %w", name, fs.ErrInvalid)
	}

	info, err := fs.Stat(p.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("asset: %s: %w", name, ErrNotExist)
		}
		return nil, fmt.Errorf("asset: stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("asset: %s is a directory: %w", name, ErrNotExist)
	}
	if info.Size() > p.maxBytes {
		return nil, fmt.Errorf("asset: %s (%d bytes): %w", name, info.Size(), ErrTooLarge)
	}

	data, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("asset: read %s: %w", name, err)
	}
	return data, nil
}

// Map is an in-memory provider, convenient for tests and embedded assets.
type Map map[string][]byte

// Open implements Provider.
func (m Map) Open(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("asset: %s: %w", name, ErrNotExist)
	}
	return data, nil
}
