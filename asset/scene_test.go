package asset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/depthflow/uniform"
)

func TestLoadSceneMissing(t *testing.T) {
	for _, p := range []Provider{nil, Map{}} {
		s, err := LoadScene(p)
		if err != nil {
			t.Fatalf("LoadScene: %v", err)
		}
		if s.Height != nil || s.Resolution != nil {
			t.Errorf("expected zero Scene, got %+v", s)
		}
	}
}

func TestLoadSceneInvalid(t *testing.T) {
	if _, err := LoadScene(Map{NameScene: []byte("{")}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSceneApply(t *testing.T) {
	s, err := LoadScene(Map{NameScene: []byte(`{"height": 0.2, "offset_x": -0.1, "resolution": [512, 512]}`)})
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if s.Resolution == nil || *s.Resolution != [2]int{512, 512} {
		t.Errorf("resolution = %v", s.Resolution)
	}

	p := uniform.Defaults()
	s.Apply(&p)
	if p.Height != 0.2 || p.Offset.X != -0.1 {
		t.Errorf("Apply did not copy set fields: %+v", p)
	}
	if p.Zoom != 1 || p.Steady != 0.5 || p.Offset.Y != 0 {
		t.Errorf("Apply touched unset fields: %+v", p)
	}
}

func TestWriteScene(t *testing.T) {
	dir := t.TempDir()
	in := Scene{Height: Float(0.2), Zoom: Float(1), OffsetY: Float(0.3), Resolution: &[2]int{256, 128}}
	if err := WriteScene(dir, in); err != nil {
		t.Fatalf("WriteScene: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, NameScene)); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	out, err := LoadScene(Dir(dir))
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if *out.Height != 0.2 || *out.Zoom != 1 || *out.OffsetY != 0.3 || out.Focus != nil {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if *out.Resolution != [2]int{256, 128} {
		t.Errorf("resolution = %v", *out.Resolution)
	}
}
