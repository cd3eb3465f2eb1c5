package hashindex

// ElfHash computes the ELF (PJW) hash of s over its bytes. The result always
// fits in 28 bits.
func ElfHash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = (h << 4) + uint32(s[i])
		if hi := h & 0xF0000000; hi != 0 {
			h ^= hi >> 24
			h &^= hi
		}
	}
	return h
}
