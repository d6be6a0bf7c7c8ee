package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/depthflow/uniform"
)

// Scene is the optional per-asset-set configuration stored as config.json
// next to the textures. Unset fields leave the engine defaults alone.
type Scene struct {
	Height     *float32 `json:"height,omitempty"`
	Steady     *float32 `json:"steady,omitempty"`
	Focus      *float32 `json:"focus,omitempty"`
	Zoom       *float32 `json:"zoom,omitempty"`
	Isometric  *float32 `json:"isometric,omitempty"`
	OffsetX    *float32 `json:"offset_x,omitempty"`
	OffsetY    *float32 `json:"offset_y,omitempty"`
	Resolution *[2]int  `json:"resolution,omitempty"`
}

// LoadScene reads config.json from p. A missing file yields a zero Scene
// and no error.
func LoadScene(p Provider) (Scene, error) {
	var s Scene
	if p == nil {
		return s, nil
	}
	data, err := p.Open(NameScene)
	if errors.Is(err, ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("asset: parse %s: %w", NameScene, err)
	}
	return s, nil
}

// Apply copies the fields set in s into p.
func (s Scene) Apply(p *uniform.Params) {
	set := func(dst *float32, v *float32) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Height, s.Height)
	set(&p.Steady, s.Steady)
	set(&p.Focus, s.Focus)
	set(&p.Zoom, s.Zoom)
	set(&p.Isometric, s.Isometric)
	set(&p.Offset.X, s.OffsetX)
	set(&p.Offset.Y, s.OffsetY)
}

// WriteScene stores s as indented JSON in dir/config.json.
func WriteScene(dir string, s Scene) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("asset: encode scene: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, NameScene), append(data, '\n'), 0o644)
}

// Float returns a pointer to v, for building Scene literals.
func Float(v float32) *float32 { return &v }
