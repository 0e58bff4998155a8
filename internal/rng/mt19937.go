// Package rng provides the seeded, reproducible random sources used by the sampler.
package rng

const (
	mtN       = 624
	mtM       = 397
	matrixA   = 0x9908b0df
	upperMask = 0x80000000
	lowerMask = 0x7fffffff

	// DefaultMTSeed is the seed a default-constructed std::mt19937 uses.
	DefaultMTSeed uint32 = 5489
)

// Source is a deterministic 32-bit generator whose output is a pure function of its seed.
type Source interface {
	Seed(seed uint32)
	Uint32() uint32
}

// MT19937 is the 32-bit Mersenne Twister. Its output sequence matches std::mt19937
// for the same seed, so cycle draws are bit-identical to the native sampler.
// Waveform values agree to within a few ulp, since sin is evaluated in float64
// rather than with sinf.
// Not safe for concurrent use.
type MT19937 struct {
	mt  [mtN]uint32
	mti int
}

// NewMT19937 returns a generator seeded with seed.
func NewMT19937(seed uint32) *MT19937 {
	m := &MT19937{}
	m.Seed(seed)
	return m
}

// Seed discards all prior state and reinitializes the generator.
func (m *MT19937) Seed(seed uint32) {
	m.mt[0] = seed
	for i := 1; i < mtN; i++ {
		prev := m.mt[i-1]
		m.mt[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	m.mti = mtN
}

// Uint32 returns the next tempered 32-bit output.
func (m *MT19937) Uint32() uint32 {
	if m.mti >= mtN {
		m.twist()
	}

	y := m.mt[m.mti]
	m.mti++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

func (m *MT19937) twist() {
	mag01 := [2]uint32{0, matrixA}

	var kk int
	for kk = 0; kk < mtN-mtM; kk++ {
		y := (m.mt[kk] & upperMask) | (m.mt[kk+1] & lowerMask)
		m.mt[kk] = m.mt[kk+mtM] ^ (y >> 1) ^ mag01[y&1]
	}
	for ; kk < mtN-1; kk++ {
		y := (m.mt[kk] & upperMask) | (m.mt[kk+1] & lowerMask)
		m.mt[kk] = m.mt[kk+(mtM-mtN)] ^ (y >> 1) ^ mag01[y&1]
	}
	y := (m.mt[mtN-1] & upperMask) | (m.mt[0] & lowerMask)
	m.mt[mtN-1] = m.mt[mtM-1] ^ (y >> 1) ^ mag01[y&1]
	m.mti = 0
}
