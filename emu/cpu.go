// Package emu provides functional MRISC32 emulation.
package emu

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/mrisc32-sim/mr32sim/insts"
)

// CPU is the capability interface a core implementation exposes to the
// enclosing program.
type CPU interface {
	// Run starts executing at the reset PC and returns the guest exit
	// code. A fault inside a cycle aborts the run with a *FaultError.
	Run() (uint32, error)

	// Reset clears the architectural register state.
	Reset()

	// Terminate requests a cooperative stop; Run returns at the next
	// cycle boundary. Safe to call from another goroutine.
	Terminate()

	// DumpStats writes run statistics from the last Run.
	DumpStats(w io.Writer)

	// DumpRAM writes the byte range [begin, end) to a host file.
	DumpRAM(begin, end uint32, fileName string) error
}

// Config carries the core tunables owned by the enclosing program.
type Config struct {
	// MaxCycles bounds the simulation; negative means unbounded.
	// Exhausting the budget terminates the run with exit code 0.
	MaxCycles int64

	// Trace receives 20-byte debug trace records, one per retired
	// instruction (vector lanes included). Nil disables tracing.
	Trace io.Writer
}

// Pipeline bundles. These mirror the hardware's pipeline registers but
// only live as locals within one simulated cycle.

type idIn struct {
	pc    uint32 // PC of the current instruction.
	instr uint32 // Instruction word.
}

type exIn struct {
	srcA       uint32 // Source operand A.
	srcB       uint32 // Source operand B.
	srcC       uint32 // Source operand C / store data.
	exOp       insts.ExOp
	packedMode insts.PackedMode
	memOp      insts.MemOp
	dstReg     uint32 // Target register (Z = none).
	dstLane    uint32 // Target lane for vector registers.
	dstVector  bool   // Target is a vector register.
}

type memIn struct {
	memOp     insts.MemOp
	memAddr   uint32 // Effective address.
	storeData uint32
	dstData   uint32 // ALU result for the WB step.
	dstReg    uint32
	dstLane   uint32
	dstVector bool
}

type wbIn struct {
	dstData   uint32
	dstReg    uint32
	dstLane   uint32
	dstVector bool
}

// Simple is a sequential in-order interpreter: one instruction per
// cycle through IF, ID/RF, EX, MEM and WB, with vector instructions
// replaying ID-WB one lane per cycle while IF stalls.
//
// Simple is single-owner; concurrent Run calls are undefined.
type Simple struct {
	ram     *RAM
	regs    *RegFile
	decoder *insts.Decoder

	syscalls SyscallHandler
	trace    *traceWriter

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	maxCycles int64
	terminate atomic.Bool

	// Run stats.
	fetchedInstrCount uint64
	vectorLoopCount   uint64
	totalCycleCount   uint64
}

// SimpleOption is a functional option for configuring the core.
type SimpleOption func(*Simple)

// WithStdin sets the reader backing the GETCHAR and READ(0) routines.
func WithStdin(r io.Reader) SimpleOption {
	return func(c *Simple) { c.stdin = r }
}

// WithStdout sets the writer backing PUTCHAR and WRITE(1).
func WithStdout(w io.Writer) SimpleOption {
	return func(c *Simple) { c.stdout = w }
}

// WithStderr sets the writer backing WRITE(2).
func WithStderr(w io.Writer) SimpleOption {
	return func(c *Simple) { c.stderr = w }
}

// WithSyscallHandler replaces the default host service adapter.
func WithSyscallHandler(h SyscallHandler) SimpleOption {
	return func(c *Simple) { c.syscalls = h }
}

// NewSimple creates a sequential interpreter bound to the given RAM.
func NewSimple(ram *RAM, cfg Config, opts ...SimpleOption) *Simple {
	c := &Simple{
		ram:       ram,
		regs:      &RegFile{},
		decoder:   insts.NewDecoder(),
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		maxCycles: cfg.MaxCycles,
	}

	for _, opt := range opts {
		opt(c)
	}

	if cfg.Trace != nil {
		c.trace = newTraceWriter(cfg.Trace)
	}
	if c.syscalls == nil {
		c.syscalls = NewDefaultSyscallHandler(ram, c.stdin, c.stdout, c.stderr)
	}

	return c
}

// Regs returns the architectural register file.
func (c *Simple) Regs() *RegFile {
	return c.regs
}

// RAM returns the guest memory.
func (c *Simple) RAM() *RAM {
	return c.ram
}

// FetchedInstrCount returns the number of IF-stage fetches of the last run.
func (c *Simple) FetchedInstrCount() uint64 {
	return c.fetchedInstrCount
}

// VectorLoopCount returns the number of vector replay cycles of the last run.
func (c *Simple) VectorLoopCount() uint64 {
	return c.vectorLoopCount
}

// TotalCycleCount returns the total cycles of the last run.
func (c *Simple) TotalCycleCount() uint64 {
	return c.totalCycleCount
}

// Reset clears the architectural register state.
func (c *Simple) Reset() {
	c.regs.Reset()
	c.syscalls.Clear()
	c.terminate.Store(false)
}

// Terminate requests a cooperative stop at the next cycle boundary.
func (c *Simple) Terminate() {
	c.terminate.Store(true)
}

// DumpStats writes run statistics from the last Run.
func (c *Simple) DumpStats(w io.Writer) {
	ops := c.fetchedInstrCount + c.vectorLoopCount
	cpo := 0.0
	if ops > 0 {
		cpo = float64(c.totalCycleCount) / float64(ops)
	}
	fmt.Fprintf(w, "CPU instructions:\n")
	fmt.Fprintf(w, " Fetched instructions: %d\n", c.fetchedInstrCount)
	fmt.Fprintf(w, " Vector loops:         %d\n", c.vectorLoopCount)
	fmt.Fprintf(w, " Total CPU cycles:     %d\n", c.totalCycleCount)
	fmt.Fprintf(w, " Cycles/Operation:     %g\n", cpo)
}

// DumpRAM writes the byte range [begin, end) to a host file.
func (c *Simple) DumpRAM(begin, end uint32, fileName string) error {
	if end < begin {
		return fmt.Errorf("invalid RAM dump range: 0x%08x..0x%08x", begin, end)
	}
	data, err := c.ram.ReadBytes(begin, end-begin)
	if err != nil {
		return err
	}
	return os.WriteFile(fileName, data, 0644)
}

// Run executes from the reset PC until the program exits, the cycle
// budget runs out, or a fault occurs.
func (c *Simple) Run() (uint32, error) {
	c.syscalls.Clear()
	c.regs.R[insts.RegPC] = insts.ResetPC
	c.fetchedInstrCount = 0
	c.vectorLoopCount = 0
	c.totalCycleCount = 0

	exitCode, err := c.runLoop()
	if c.trace != nil {
		if ferr := c.trace.flush(); ferr != nil && err == nil {
			err = ferr
		}
	}
	if err != nil {
		return 0, &FaultError{Err: err, RegDump: c.regs.Dump()}
	}
	return exitCode, nil
}

func (c *Simple) runLoop() (uint32, error) {
	regs := c.regs

	// Pipeline state.
	var vector vectorState
	var id idIn
	var inst *insts.Instruction

	for !c.syscalls.Terminated() && !c.terminate.Load() {
		var nextPC uint32
		var continuesVectorLoop bool

		// Simulator routine call handling: the reserved high PC window
		// traps to the host instead of fetching.
		if regs.R[insts.RegPC]&0xffff0000 == insts.SyscallBase {
			routineNo := (regs.R[insts.RegPC] - insts.SyscallBase) >> 2
			if err := c.syscalls.Call(routineNo, regs); err != nil {
				return 0, err
			}

			// Simulate jmp lr.
			regs.R[insts.RegPC] = regs.R[insts.RegLR]
			if c.syscalls.Terminated() {
				break
			}
		}

		// IF. Stalled while a vector operation is active.
		if !vector.active {
			instrPC := regs.R[insts.RegPC]

			iword, err := c.ram.Load32(instrPC)
			if err != nil {
				return 0, err
			}
			id.pc = instrPC
			id.instr = iword
			inst = c.decoder.Decode(iword)

			// A jump to address zero terminates the simulation.
			if instrPC == 0 {
				regs.R[1] = 1
				if err := c.syscalls.Call(RoutineExit, regs); err != nil {
					return 0, err
				}
			}

			c.fetchedInstrCount++
		} else {
			c.vectorLoopCount++
		}

		if !inst.Valid {
			return 0, &DecodeError{PC: id.pc, IWord: id.instr}
		}

		// ID/RF.
		var ex exIn
		{
			isVectorOp := inst.VectorMode != insts.VectorScalar

			// == VECTOR STATE HANDLING ==

			vectorLen := regs.VectorLen()
			if isVectorOp {
				var vectorStride uint32
				if inst.Class == insts.ClassC {
					vectorStride = inst.Imm15
				} else {
					vectorStride = regs.Read(inst.Reg3)
				}

				if !vector.active {
					if vectorLen == 0 {
						// Zero-length vector ops retire as a NOP.
						regs.R[insts.RegPC] = id.pc + 4
						continue
					}
					vector.idx = 0
					vector.stride = vectorStride
					vector.addrOffset = 0
					vector.folding = inst.VectorMode == insts.VectorFolding
				} else {
					// Lane advance happens in the ID/RF stage.
					vector.idx++
					vector.addrOffset += vector.stride
				}
			}

			// Will the next cycle replay this instruction (stall IF)?
			continuesVectorLoop = isVectorOp && vector.idx+1 < vectorLen

			// == BRANCH HANDLING ==

			switch {
			case inst.IsBcc:
				taken := false
				condValue := regs.Read(inst.Reg1)
				switch inst.BranchCond {
				case insts.CondBZ:
					taken = condValue == 0
				case insts.CondBNZ:
					taken = condValue != 0
				case insts.CondBS:
					taken = condValue == 0xffffffff
				case insts.CondBNS:
					taken = condValue != 0xffffffff
				case insts.CondBLT:
					taken = condValue&0x80000000 != 0
				case insts.CondBGE:
					taken = condValue&0x80000000 == 0
				case insts.CondBLE:
					taken = condValue&0x80000000 != 0 || condValue == 0
				case insts.CondBGT:
					taken = condValue&0x80000000 == 0 && condValue != 0
				}
				if taken {
					nextPC = id.pc + (inst.Imm21 << 2)
				} else {
					nextPC = id.pc + 4
				}
			case inst.IsJump:
				nextPC = regs.Read(inst.Reg1) + (inst.Imm21 << 2)
			default:
				nextPC = id.pc + 4
			}

			// == REGISTER FILE READ ==

			// Memory operations keep the scalar base register even in
			// vector mode; only gather-scatter reads B as a vector.
			reg1IsVector := isVectorOp
			reg2IsVector := isVectorOp && !inst.IsMemOp()
			reg3IsVector := inst.VectorMode&1 != 0

			var regAData uint32
			if reg2IsVector {
				regAData = regs.ReadLane(inst.SrcRegA, vector.idx)
			} else {
				regAData = regs.Read(inst.SrcRegA)
			}

			vectorIdxB := vector.idx
			if vector.folding {
				vectorIdxB = vector.idx + regs.R[insts.RegVL]
			}
			var regBData uint32
			if reg3IsVector {
				regBData = regs.ReadLane(inst.SrcRegB, vectorIdxB)
			} else {
				regBData = regs.Read(inst.SrcRegB)
			}

			var regCData uint32
			if reg1IsVector {
				regCData = regs.ReadLane(inst.SrcRegC, vector.idx)
			} else {
				regCData = regs.Read(inst.SrcRegC)
			}

			// Gather-scatter uses the B lane as the memory offset,
			// stride mode the accumulated offset.
			vectorAddrOffset := vector.addrOffset
			if inst.VectorMode == insts.VectorGatherScatter {
				vectorAddrOffset = regBData
			}

			ex.srcA = regAData
			switch {
			case inst.IsSubroutineBranch:
				ex.srcB = 4
			case isVectorOp && inst.IsMemOp():
				ex.srcB = vectorAddrOffset
			case inst.Class == insts.ClassC:
				ex.srcB = inst.Imm15
			case inst.Class == insts.ClassD:
				ex.srcB = inst.Imm21
			default:
				ex.srcB = regBData
			}
			ex.srcC = regCData
			ex.dstReg = inst.DstReg
			ex.dstLane = vector.idx
			ex.dstVector = isVectorOp
			ex.exOp = inst.ExOp
			ex.packedMode = inst.PackedMode
			ex.memOp = inst.MemOp

			if c.trace != nil {
				err := c.trace.append(debugTrace{
					valid:     true,
					srcAValid: inst.Reg2IsSrc,
					srcBValid: inst.Reg3IsSrc,
					srcCValid: inst.Reg1IsSrc,
					pc:        id.pc,
					srcA:      ex.srcA,
					srcB:      ex.srcB,
					srcC:      ex.srcC,
				})
				if err != nil {
					return 0, err
				}
			}
		}

		// EX.
		var mem memIn
		{
			var exResult uint32
			if ex.memOp != insts.MemOpNone {
				// AGU: base + offset scaled by 1 << packed mode (the index scale field).
				exResult = ex.srcA + ex.srcB*indexScaleFactor(uint32(ex.packedMode))
			} else {
				var err error
				exResult, err = execute(ex.exOp, ex.packedMode, ex.srcA, ex.srcB)
				if err != nil {
					return 0, err
				}
			}

			mem.memAddr = exResult
			mem.dstData = exResult
			mem.dstReg = ex.dstReg
			mem.dstLane = ex.dstLane
			mem.dstVector = ex.dstVector
			mem.memOp = ex.memOp
			mem.storeData = ex.srcC
		}

		// MEM.
		var wb wbIn
		{
			var memResult uint32
			var err error
			switch mem.memOp {
			case insts.MemOpNone:
				// Pure ALU op.
			case insts.MemOpLoad8:
				memResult, err = c.ram.Load8S(mem.memAddr)
			case insts.MemOpLoadU8:
				memResult, err = c.ram.Load8(mem.memAddr)
			case insts.MemOpLoad16:
				memResult, err = c.ram.Load16S(mem.memAddr)
			case insts.MemOpLoadU16:
				memResult, err = c.ram.Load16(mem.memAddr)
			case insts.MemOpLoad32:
				memResult, err = c.ram.Load32(mem.memAddr)
			case insts.MemOpLDEA:
				memResult = mem.memAddr
			case insts.MemOpStore8:
				err = c.ram.Store8(mem.memAddr, mem.storeData)
			case insts.MemOpStore16:
				err = c.ram.Store16(mem.memAddr, mem.storeData)
			case insts.MemOpStore32:
				err = c.ram.Store32(mem.memAddr, mem.storeData)
			default:
				err = &UnimplementedOpError{MemOp: mem.memOp}
			}
			if err != nil {
				return 0, err
			}

			wb.dstData = mem.dstData
			if mem.memOp != insts.MemOpNone {
				wb.dstData = memResult
			}
			wb.dstReg = mem.dstReg
			wb.dstLane = mem.dstLane
			wb.dstVector = mem.dstVector
		}

		// WB. The PC is never written here; the run loop advances it.
		if wb.dstReg != insts.RegZ {
			if wb.dstVector {
				regs.WriteLane(wb.dstReg, wb.dstLane, wb.dstData)
			} else if wb.dstReg != insts.RegPC {
				regs.R[wb.dstReg] = wb.dstData
			}
		}

		// Update the vector driver and the PC.
		vector.active = continuesVectorLoop
		if !continuesVectorLoop {
			regs.R[insts.RegPC] = nextPC
		}

		c.totalCycleCount++
		if c.maxCycles >= 0 && int64(c.totalCycleCount) >= c.maxCycles {
			c.terminate.Store(true)
		}
	}

	return c.syscalls.ExitCode(), nil
}
