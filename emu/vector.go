// Package emu provides functional MRISC32 emulation.
package emu

// vectorState tracks an in-flight vector operation. While active, the
// IF stage is stalled and the decoded instruction is replayed with an
// incremented lane index each cycle.
type vectorState struct {
	idx        uint32 // Current lane index.
	stride     uint32 // Stride for vector memory address calculations.
	addrOffset uint32 // Accumulated address offset (idx * stride).
	folding    bool   // Source B reads lane idx + VL.
	active     bool   // A vector operation is in flight.
}
