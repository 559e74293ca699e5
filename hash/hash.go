// Package hash implements the fast modular hash used to map tokens to vocabulary ids
package hash

// Hash mixes n with the salt s and reduces the result into the range 0 to max-1.
func Hash(n uint32, s uint32, max uint32) uint32 {
	// mixing stage, mix input with salt using subtraction
	var m = uint32(n) - uint32(s)

	// hashing stage, use xor shift with prime coefficients
	m ^= m << 2
	m ^= m << 3
	m ^= m >> 5
	m ^= m >> 7
	m ^= m << 11
	m ^= m << 13
	m ^= m >> 17
	m ^= m << 19

	// mixing stage 2, mix input with salt using addition
	m += s

	// modular stage, multiply shift instead of modulo
	// https://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction/
	return uint32((uint64(m) * uint64(max)) >> 32)
}

// StringHash folds every byte of str into a 32-bit hash seeded by n.
func StringHash(n uint32, str string) uint32 {
	var ret = n
	for i := 0; i < len(str); i++ {
		ret = Hash(ret, uint32(str[i])+uint32(i)<<8, 0xFFFFFFFF)
	}
	return ret ^ uint32(len(str))
}

// Bucket maps str into the range 0 to max-1 using the given salt.
func Bucket(salt uint32, str string, max uint32) uint32 {
	return Hash(StringHash(salt, str), salt, max)
}
