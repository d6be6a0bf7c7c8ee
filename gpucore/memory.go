package gpucore

// FindMemoryType returns the first memory type index allowed by typeBits
// whose properties contain every flag in required.
//
// When no type qualifies it returns the fallback index 0 and false.
func FindMemoryType(types []MemoryType, typeBits uint32, required MemoryProperty) (uint32, bool) {
	for i, t := range types {
		if i >= 32 {
			break
		}
		if typeBits&(1<<uint(i)) == 0 {
			continue
		}
		if t.Properties&required == required {
			return uint32(i), true
		}
	}
	return 0, false
}
