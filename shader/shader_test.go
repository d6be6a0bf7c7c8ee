package shader

import (
	"encoding/binary"
	"errors"
	"testing"
)

func header(magic uint32, major, minor byte) []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(b, magic)
	b[4], b[5], b[6], b[7] = 0, minor, major, 0
	return b
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spv     []byte
		wantErr bool
	}{
		{"header only", header(Magic, 1, 0), false},
		{"spirv 1.3", append(header(Magic, 1, 3), 0, 0, 0, 0), false},
		{"empty", nil, true},
		{"short", header(Magic, 1, 0)[:16], true},
		{"unaligned", append(header(Magic, 1, 0), 0), true},
		{"bad magic", header(0xdeadbeef, 1, 0), true},
		{"byte swapped", header(0x03022307, 1, 0), true},
		{"version 2", header(Magic, 2, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.spv)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSPIRV) {
				t.Errorf("error %v does not wrap ErrInvalidSPIRV", err)
			}
		})
	}
}

func TestFullscreen(t *testing.T) {
	spv, err := Fullscreen()
	if err != nil {
		t.Fatalf("Fullscreen() error = %v", err)
	}
	if err := Validate(spv); err != nil {
		t.Fatalf("compiled module is invalid: %v", err)
	}
	if major, minor := spv[6], spv[5]; major != 1 || minor != 0 {
		t.Errorf("SPIR-V version = %d.%d, want 1.0", major, minor)
	}

	again, _ := Fullscreen()
	if &again[0] != &spv[0] {
		t.Error("Fullscreen() compiled twice")
	}
}

func TestCompileWGSLError(t *testing.T) {
	if _, err := CompileWGSL("fn main( {"); err == nil {
		t.Fatal("expected a compile error")
	}
}
