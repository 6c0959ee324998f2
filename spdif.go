// spdif.go - S/PDIF biphase-mark subframe encoder (spec.md §3, §4.5).
//
// The 256-entry lookup table is grounded on the teacher's audio_lut.go
// pattern: a fixed-size table computed once in init() instead of at
// every call site (there it's sinLUT/tanhLUT for oscillator/soft-clip
// math; here it's the biphase-mark expansion of every possible byte).
//
// Licensed under the GNU General Public License v3.0 or later.

package main

// biphaseLUT[b] holds the 16 channel-bits (one 0/1 line level per
// entry, least significant data bit first) that biphase-mark-encode
// the byte b: each data bit always produces a
// transition at the start of its cell, and a 1-bit additionally
// transitions at the cell's midpoint. Precomputing this avoids a
// bit-by-bit loop in the hot encode path, the same trade the teacher
// makes for its oscillator tables.
var biphaseLUT [256][16]uint8

func init() {
	for b := 0; b < 256; b++ {
		level := uint8(0)
		for bitPos := 0; bitPos < 8; bitPos++ {
			bit := (b >> bitPos) & 1
			level ^= 1 // every cell starts with a transition
			biphaseLUT[b][bitPos*2] = level
			if bit == 1 {
				level ^= 1 // a 1-bit also transitions mid-cell
			}
			biphaseLUT[b][bitPos*2+1] = level
		}
	}
}

// spdifPreamble identifies a subframe's position within a frame.
type spdifPreamble int

const (
	preambleB spdifPreamble = iota // start of channel-status block / frame 0
	preambleM                      // left subframe, mid-block
	preambleW                      // right subframe
)

// SPDIFSubframe is one encoded 32-bit subframe: 4 preamble channel-bits
// (not biphase-coded, they deliberately violate the coding rule so a
// receiver can find sync) followed by 28 biphase-coded data/aux/V/U/C/P
// bits (spec.md §4.5).
type SPDIFSubframe struct {
	Preamble spdifPreamble
	Sample   int32 // 20-bit audio sample, two's complement in the low 20 bits
	Parity   uint8
}

// EncodeSubframe packs a 20-bit audio sample plus status bits into one
// SPDIFSubframe. Validity (V) is always 0 (valid); user data (U) and
// channel status (C) bits are left 0, out of scope for a consumer-grade
// optical/coax implementation that carries PCM only.
func EncodeSubframe(preamble spdifPreamble, sample20 int32) SPDIFSubframe {
	s := sample20 & 0xFFFFF
	parity := uint8(0)
	for v := uint32(s); v != 0; v &= v - 1 {
		parity ^= 1
	}
	return SPDIFSubframe{Preamble: preamble, Sample: s, Parity: parity}
}

// spdifBlock is the S/PDIF buffer pool: spdifBufferCount ring slots, each
// holding one block of spdifSamplesPerBlock frames (spdifSubframesPerBlock
// encoded subframes), with a filled flag per slot (spec.md §4.5).
type spdifBlock struct {
	buffers    [spdifBufferCount][spdifSamplesPerBlock * 2]SPDIFSubframe
	writeIndex int
	readIndex  int
	filled     [spdifBufferCount]bool
}

func newSPDIFBlockPool() *spdifBlock {
	return &spdifBlock{}
}

// PushFrame encodes one stereo sample pair into the current write
// buffer's next frame slot. blockPos is the 0-based frame position
// within the current spdifSamplesPerBlock-frame block, used to select
// preambleB on the first frame of the block.
func (p *spdifBlock) PushFrame(blockPos int, l, r int32) {
	leftPreamble := preambleM
	if blockPos == 0 {
		leftPreamble = preambleB
	}
	buf := &p.buffers[p.writeIndex]
	buf[blockPos*2] = EncodeSubframe(leftPreamble, l)
	buf[blockPos*2+1] = EncodeSubframe(preambleW, r)
}

// CommitBuffer marks the current write buffer ready for the transmit
// side and advances to the next of the spdifBufferCount ring slots.
// Implements the double(multi)-buffering scheme of spec.md §4.5: the
// encoder never blocks on the transmit side draining a buffer.
func (p *spdifBlock) CommitBuffer() {
	p.filled[p.writeIndex] = true
	p.writeIndex = (p.writeIndex + 1) % spdifBufferCount
}

// PushSilentBuffer commits one full block of zero-sample subframes
// without going through PushFrame, used to pre-fill the pool across a
// hard packet gap so transmit doesn't underrun immediately on resume
// (spec.md §4.1 "pre-fill the S/PDIF pool with two silent buffers").
func (p *spdifBlock) PushSilentBuffer() {
	for pos := 0; pos < spdifSamplesPerBlock; pos++ {
		p.PushFrame(pos, 0, 0)
	}
	p.CommitBuffer()
}

// ReadyCount reports how many encoded buffers are waiting for transmit,
// published as Status.SPDIFReady; no low-watermark check uses it.
func (p *spdifBlock) ReadyCount() int {
	n := 0
	for _, f := range p.filled {
		if f {
			n++
		}
	}
	return n
}

// TakeBuffer returns the oldest filled buffer for transmission, or
// ok=false if none is ready (an underrun: the transmit side must repeat
// silence or the last frame per spec.md §4.5).
func (p *spdifBlock) TakeBuffer() (*[spdifSamplesPerBlock * 2]SPDIFSubframe, bool) {
	if !p.filled[p.readIndex] {
		return nil, false
	}
	buf := &p.buffers[p.readIndex]
	p.filled[p.readIndex] = false
	p.readIndex = (p.readIndex + 1) % spdifBufferCount
	return buf, true
}

// biphaseCellsForSample returns the 16 biphase channel-bit transitions
// that encode one subframe's low byte of sample data, via the
// precomputed table. Real S/PDIF transmission shifts out 64 channel-bits
// per subframe (4 preamble + 28 coded data bits, each data bit expanding
// to 2 channel-bits); this table covers the 8-bit granularity a PIO or
// UART-like shift peripheral would consume per byte.
func biphaseCellsForSample(b uint8) [16]uint8 {
	return biphaseLUT[b]
}

// spdifClockDivider returns the bit-clock divider for a PIO-style serial
// peripheral driving S/PDIF at 64x the frame rate (2 channels x 32
// bits/subframe), given the system clock and target sample rate
// (spec.md §4.5 "PIO divider calc").
func spdifClockDivider(systemClockHz, sampleRateHz float64) float64 {
	bitClockHz := sampleRateHz * 64
	return systemClockHz / bitClockHz
}
