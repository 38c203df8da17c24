package emu_test

import (
	"github.com/mrisc32-sim/mr32sim/emu"
	"github.com/mrisc32-sim/mr32sim/insts"
)

// Instruction encoding helpers for building test programs.

// encodeA builds a three-register (class A) ALU instruction.
func encodeA(op insts.ExOp, reg1, reg2, reg3 uint32, pm insts.PackedMode, vm insts.VectorMode) uint32 {
	return reg1<<21 | reg2<<16 | uint32(vm)<<14 | reg3<<9 | uint32(pm)<<7 | uint32(op)
}

// encodeAMem builds a register-indexed (class A) memory instruction.
// The packed mode doubles as the index scale factor.
func encodeAMem(op insts.MemOp, reg1, reg2, reg3 uint32, scale insts.PackedMode, vm insts.VectorMode) uint32 {
	return reg1<<21 | reg2<<16 | uint32(vm)<<14 | reg3<<9 | uint32(scale)<<7 | uint32(op)
}

// encodeC builds an immediate (class C) instruction. The opcode is the
// EX op for ALU forms or the mem op for loads/stores.
func encodeC(opcode, reg1, reg2 uint32, imm int32, vector bool) uint32 {
	w := opcode<<26 | reg1<<21 | reg2<<16 | uint32(imm)&0x7fff
	if vector {
		w |= 1 << 15
	}
	return w
}

// encodeD builds a 21-bit immediate (class D) instruction.
func encodeD(opcode, reg1 uint32, imm int32) uint32 {
	return opcode<<26 | reg1<<21 | uint32(imm)&0x1fffff
}

// ldi loads a sign-extended 21-bit immediate (ldli).
func ldi(reg uint32, imm int32) uint32 {
	return encodeD(0x3a, reg, imm)
}

// ldhi loads imm<<11.
func ldhi(reg uint32, imm int32) uint32 {
	return encodeD(0x3b, reg, imm)
}

// orImm is the immediate form of OR (also the canonical mov/ldi idiom).
func orImm(reg1, reg2 uint32, imm int32) uint32 {
	return encodeC(uint32(insts.ExOpOR), reg1, reg2, imm, false)
}

// loadWord builds the two-instruction ldhi+or sequence that
// materializes an arbitrary 32-bit constant.
func loadWord(reg uint32, value uint32) []uint32 {
	return []uint32{
		ldhi(reg, int32(value>>11)),
		orImm(reg, reg, int32(value&0x7ff)),
	}
}

// jl is the subroutine branch: target = reg + 4*offsetWords.
func jl(reg uint32, offsetWords int32) uint32 {
	return encodeD(0x39, reg, offsetWords)
}

// bcc builds a conditional branch with a word offset.
func bcc(cond, reg uint32, offsetWords int32) uint32 {
	return encodeD(cond, reg, offsetWords)
}

// syscallOffset is the jl offset (in words) that reaches a simulator
// routine from register Z.
func syscallOffset(routine uint32) int32 {
	return int32(insts.SyscallBase>>2) + int32(routine)
}

// exitProgram is the canonical tail: trap to the EXIT routine with the
// current R1 as the status.
func exitProgram() uint32 {
	return jl(insts.RegZ, syscallOffset(emu.RoutineExit))
}

// buildProgram assembles instruction words into a loadable byte image.
func buildProgram(words []uint32) []byte {
	data := make([]byte, 4*len(words))
	for i, w := range words {
		data[i*4+0] = byte(w)
		data[i*4+1] = byte(w >> 8)
		data[i*4+2] = byte(w >> 16)
		data[i*4+3] = byte(w >> 24)
	}
	return data
}

// newTestCPU creates a RAM + core pair with the program loaded at the
// reset PC.
func newTestCPU(words []uint32, opts ...emu.SimpleOption) (*emu.Simple, *emu.RAM) {
	ram := emu.NewRAM(0x100000)
	if err := ram.WriteBytes(insts.ResetPC, buildProgram(words)); err != nil {
		panic(err)
	}
	cpu := emu.NewSimple(ram, emu.Config{MaxCycles: 100000}, opts...)
	return cpu, ram
}
