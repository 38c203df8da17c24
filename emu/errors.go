// Package emu provides functional MRISC32 emulation.
package emu

import (
	"fmt"

	"github.com/mrisc32-sim/mr32sim/insts"
)

// AddressError reports a RAM access outside the configured size.
type AddressError struct {
	Addr uint32 // Faulting address.
	Size uint32 // Access size in bytes.
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("out of range memory access: 0x%08x (%d bytes)", e.Addr, e.Size)
}

// AlignmentError reports a 16- or 32-bit access on an unnatural boundary.
type AlignmentError struct {
	Addr uint32 // Faulting address.
	Size uint32 // Access size in bytes.
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("unaligned %d-bit memory access: 0x%08x", 8*e.Size, e.Addr)
}

// UnimplementedOpError reports a decoded operation the execution unit
// has not realized.
type UnimplementedOpError struct {
	ExOp   insts.ExOp
	MemOp  insts.MemOp
	Packed insts.PackedMode
}

func (e *UnimplementedOpError) Error() string {
	if e.MemOp != insts.MemOpNone {
		return fmt.Sprintf("unimplemented memory operation: 0x%x", uint32(e.MemOp))
	}
	return fmt.Sprintf("unimplemented EX operation: 0x%x (packed mode %d)",
		uint32(e.ExOp), e.Packed)
}

// DecodeError reports an instruction word that matches no encoding.
type DecodeError struct {
	PC    uint32
	IWord uint32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("undecodable instruction 0x%08x at PC=0x%08x", e.IWord, e.PC)
}

// SyscallError reports an invalid simulator routine call.
type SyscallError struct {
	Routine uint32
	Reason  string
}

func (e *SyscallError) Error() string {
	return fmt.Sprintf("syscall routine %d: %s", e.Routine, e.Reason)
}

// FaultError is the error surfaced by Run when a cycle faults. It
// carries the underlying fault and a textual register dump.
type FaultError struct {
	Err     error
	RegDump string
}

func (e *FaultError) Error() string {
	return e.Err.Error() + "\n" + e.RegDump
}

// Unwrap exposes the underlying fault to errors.Is/As.
func (e *FaultError) Unwrap() error {
	return e.Err
}
