package gpucore

import (
	"fmt"
	"testing"
)

func TestFindMemoryType(t *testing.T) {
	types := []MemoryType{
		{Properties: MemoryPropertyDeviceLocal},
		{Properties: MemoryPropertyHostVisible},
		{Properties: MemoryPropertyHostVisible | MemoryPropertyHostCoherent},
		{Properties: MemoryPropertyDeviceLocal | MemoryPropertyHostVisible | MemoryPropertyHostCoherent},
	}

	tests := []struct {
		name     string
		typeBits uint32
		required MemoryProperty
		want     uint32
		wantOK   bool
	}{
		{"device local any", 0xF, MemoryPropertyDeviceLocal, 0, true},
		{"host coherent first match", 0xF, MemoryPropertyHostVisible | MemoryPropertyHostCoherent, 2, true},
		{"filter skips type 2", 0b1001, MemoryPropertyHostVisible | MemoryPropertyHostCoherent, 3, true},
		{"no flags required", 0b0100, 0, 2, true},
		{"nothing allowed", 0, MemoryPropertyDeviceLocal, 0, false},
		{"no type qualifies", 0b0011, MemoryPropertyHostCoherent, 0, false},
		{"cached not offered", 0xF, MemoryPropertyHostCached, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindMemoryType(types, tt.typeBits, tt.required)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FindMemoryType() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// Every (filter, flags) pair either yields an allowed type whose flags are a
// superset of the request, or the fallback index 0.
func TestFindMemoryTypeSuperset(t *testing.T) {
	var types []MemoryType
	for p := MemoryProperty(0); p < 16; p++ {
		types = append(types, MemoryType{Properties: p})
	}

	for bits := uint32(0); bits < 1<<len(types); bits += 37 {
		for req := MemoryProperty(0); req < 16; req++ {
			idx, ok := FindMemoryType(types, bits, req)
			if !ok {
				if idx != 0 {
					t.Fatalf("bits=%b req=%b: fallback index %d, want 0", bits, req, idx)
				}
				for i, mt := range types {
					if bits&(1<<uint(i)) != 0 && mt.Properties&req == req {
						t.Fatalf("bits=%b req=%b: type %d qualifies but was not found", bits, req, i)
					}
				}
				continue
			}
			if bits&(1<<idx) == 0 {
				t.Fatalf("bits=%b req=%b: index %d not in filter", bits, req, idx)
			}
			if got := types[idx].Properties; got&req != req {
				t.Fatalf("bits=%b req=%b: type %d has %b", bits, req, idx, got)
			}
		}
	}
}

func TestFindMemoryTypeIgnoresTypesBeyond32(t *testing.T) {
	types := make([]MemoryType, 40)
	types[35] = MemoryType{Properties: MemoryPropertyDeviceLocal}
	if idx, ok := FindMemoryType(types, ^uint32(0), MemoryPropertyDeviceLocal); ok {
		t.Errorf("found index %d beyond the 32-bit filter", idx)
	}
}

func TestIsSwapchainStale(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrOutOfDate, true},
		{ErrSuboptimal, true},
		{fmt.Errorf("acquire: %w", ErrOutOfDate), true},
		{ErrDeviceLost, false},
		{&ResultError{Op: "vkQueueSubmit", Code: -4}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsSwapchainStale(tt.err); got != tt.want {
			t.Errorf("IsSwapchainStale(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
