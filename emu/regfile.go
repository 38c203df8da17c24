// Package emu provides functional MRISC32 emulation.
package emu

import (
	"fmt"
	"strings"

	"github.com/mrisc32-sim/mr32sim/insts"
)

// laneMask keeps vector lane indices inside the register. Folding
// operations address lane idx+VL, which for out-of-contract VL values
// would run past the end; the original implementation leaves that
// unchecked, we wrap instead.
const laneMask = insts.VectorElements - 1

// VReg is one vector register.
type VReg [insts.VectorElements]uint32

// RegFile holds the architectural register state: 32 scalar words and
// 32 vector registers of VectorElements lanes each.
type RegFile struct {
	R [insts.NumRegs]uint32
	V [insts.NumVectorRegs]VReg
}

// Read returns a scalar register value.
func (r *RegFile) Read(reg uint32) uint32 {
	return r.R[reg&31]
}

// Write sets a scalar register. Writes to Z are discarded.
func (r *RegFile) Write(reg, value uint32) {
	if reg&31 != insts.RegZ {
		r.R[reg&31] = value
	}
}

// ReadLane returns one lane of a vector register.
func (r *RegFile) ReadLane(reg, lane uint32) uint32 {
	return r.V[reg&31][lane&laneMask]
}

// WriteLane sets one lane of a vector register. Writes to V0 are
// discarded, mirroring the scalar zero register.
func (r *RegFile) WriteLane(reg, lane, value uint32) {
	if reg&31 != insts.RegZ {
		r.V[reg&31][lane&laneMask] = value
	}
}

// VectorLen returns the architectural vector length: VL masked to the
// valid range (folding may address up to twice the lane count).
func (r *RegFile) VectorLen() uint32 {
	return r.R[insts.RegVL] & (2*insts.VectorElements - 1)
}

// Reset zeroes all scalar and vector registers.
func (r *RegFile) Reset() {
	*r = RegFile{}
}

// Dump renders the register state in the form used for fault reports.
func (r *RegFile) Dump() string {
	var b strings.Builder
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "S%d: 0x%08x\n", i, r.R[i])
	}
	fmt.Fprintf(&b, "FP: 0x%08x\n", r.R[insts.RegFP])
	fmt.Fprintf(&b, "TP: 0x%08x\n", r.R[insts.RegTP])
	fmt.Fprintf(&b, "SP: 0x%08x\n", r.R[insts.RegSP])
	fmt.Fprintf(&b, "VL: 0x%08x\n", r.R[insts.RegVL])
	fmt.Fprintf(&b, "LR: 0x%08x\n", r.R[insts.RegLR])
	fmt.Fprintf(&b, "PC: 0x%08x\n", r.R[insts.RegPC])
	return b.String()
}
