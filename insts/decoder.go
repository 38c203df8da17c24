// Package insts provides MRISC32 instruction definitions and decoding.
package insts

// Instruction represents a decoded MRISC32 instruction.
//
// All fields are derived from the 32-bit instruction word alone; the
// register file contents and vector iteration state are applied by the
// execution core.
type Instruction struct {
	Class Class // Encoding class (A, B, C or D).
	Valid bool  // False if the word matches no known encoding.

	ExOp       ExOp       // EX stage operation.
	MemOp      MemOp      // MEM stage operation (MemOpNone for pure ALU ops).
	PackedMode PackedMode // Packed lane partitioning (class A/B only).
	VectorMode VectorMode // Vector iteration mode.

	// Raw register fields.
	Reg1 uint32 // bits [25:21]
	Reg2 uint32 // bits [20:16]
	Reg3 uint32 // bits [13:9]

	// Sign-extended immediates.
	Imm15 uint32 // bits [14:0], sign-extended from bit 14
	Imm21 uint32 // bits [20:0], sign-extended from bit 20

	// Branch classification.
	IsBcc              bool   // Conditional branch (bz, bnz, ...).
	BranchCond         uint32 // Condition code (CondBZ..CondBGT) when IsBcc.
	IsJump             bool   // j or jl.
	IsSubroutineBranch bool   // jl (writes the return address to LR).

	IsAddPCHi   bool // addpchi (source A is the PC).
	IsMemLoad   bool
	IsMemStore  bool

	// Source/destination register numbers after the selection rules.
	// RegZ means "none".
	SrcRegA uint32
	SrcRegB uint32
	SrcRegC uint32
	DstReg  uint32

	// Which raw register fields act as sources (drives the debug trace
	// validity flags).
	Reg1IsSrc bool
	Reg2IsSrc bool
	Reg3IsSrc bool
}

// IsMemOp reports whether the instruction goes through the MEM stage.
func (i *Instruction) IsMemOp() bool {
	return i.IsMemLoad || i.IsMemStore
}

// IsBranch reports whether the instruction may redirect the PC.
func (i *Instruction) IsBranch() bool {
	return i.IsBcc || i.IsJump
}

// Decoder decodes MRISC32 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MRISC32 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit MRISC32 instruction word.
func (d *Decoder) Decode(iword uint32) *Instruction {
	inst := &Instruction{Valid: true}

	// Detect the encoding class. The order matters: B is a carve-out of
	// the A opcode space, and D owns the top quarter of the C space.
	classB := (iword & 0xfc00007c) == 0x0000007c
	classA := (iword&0xfc000000) == 0 && !classB
	classD := (iword & 0xc0000000) == 0xc0000000
	classC := !classA && !classB && !classD

	switch {
	case classA:
		inst.Class = ClassA
	case classB:
		inst.Class = ClassB
	case classD:
		inst.Class = ClassD
	default:
		inst.Class = ClassC
	}

	// Vector mode, masked by class: A supports all four modes, B/C only
	// stride addressing, D none.
	var vecMask uint32
	switch {
	case classA:
		vecMask = 3
	case classB || classC:
		vecMask = 2
	}
	inst.VectorMode = VectorMode((iword >> 14) & vecMask)

	// Packed mode (class A/B only), bits [8:7].
	if classA || classB {
		inst.PackedMode = PackedMode((iword & 0x00000180) >> 7)
	}

	// Register fields.
	inst.Reg1 = (iword >> 21) & 31
	inst.Reg2 = (iword >> 16) & 31
	inst.Reg3 = (iword >> 9) & 31

	// Sign-extended immediates.
	inst.Imm15 = iword & 0x00007fff
	if iword&0x00004000 != 0 {
		inst.Imm15 |= 0xffff8000
	}
	inst.Imm21 = iword & 0x001fffff
	if iword&0x00100000 != 0 {
		inst.Imm21 |= 0xffe00000
	}

	// Branch classification.
	inst.IsBcc = (iword & 0xe0000000) == 0xc0000000
	isJ := (iword & 0xf8000000) == 0xe0000000
	inst.IsJump = isJ
	inst.IsSubroutineBranch = (iword & 0xfc000000) == 0xe4000000
	if inst.IsBcc {
		inst.BranchCond = (iword >> 26) & 0x3f
	}

	// Memory operation classification.
	isLdx := (iword&0xfc000078) == 0x00000000 && (iword&0x00000007) != 0
	isLd := (iword&0xe0000000) == 0x00000000 && (iword&0x1c000000) != 0
	inst.IsMemLoad = isLdx || isLd
	isStx := (iword & 0xfc000078) == 0x00000008
	isSt := (iword & 0xe0000000) == 0x20000000
	inst.IsMemStore = isStx || isSt

	inst.IsAddPCHi = (iword & 0xfc000000) == 0xf4000000

	// Source/destination selection.
	inst.Reg1IsSrc = inst.IsMemStore || inst.IsBcc || isJ
	inst.Reg2IsSrc = classA || classB || classC
	inst.Reg3IsSrc = classA
	reg1IsDst := !inst.Reg1IsSrc

	switch {
	case inst.IsSubroutineBranch || inst.IsAddPCHi:
		inst.SrcRegA = RegPC
	case inst.Reg2IsSrc:
		inst.SrcRegA = inst.Reg2
	default:
		inst.SrcRegA = RegZ
	}
	if inst.Reg3IsSrc {
		inst.SrcRegB = inst.Reg3
	} else {
		inst.SrcRegB = RegZ
	}
	if inst.Reg1IsSrc {
		inst.SrcRegC = inst.Reg1
	} else {
		inst.SrcRegC = RegZ
	}
	switch {
	case inst.IsSubroutineBranch:
		inst.DstReg = RegLR
	case reg1IsDst:
		inst.DstReg = inst.Reg1
	default:
		inst.DstReg = RegZ
	}

	// EX operation selection.
	inst.ExOp = ExOpCPUID
	switch {
	case inst.IsSubroutineBranch:
		// jl writes PC + 4 to LR through the adder.
		inst.ExOp = ExOpADD
	case classA && (iword&0x000001f0) != 0:
		inst.ExOp = ExOp(iword & 0x0000007f)
	case classB:
		inst.ExOp = ExOp(((iword >> 1) & 0x00003f00) | (iword & 0x0000007f))
	case classC:
		inst.ExOp = ExOp(iword >> 26)
	case classD:
		switch iword & 0xfc000000 {
		case 0xe8000000: // ldli
			inst.ExOp = ExOpOR
		case 0xec000000: // ldhi
			inst.ExOp = ExOpLDHI
		case 0xf0000000: // ldhio
			inst.ExOp = ExOpLDHIO
		case 0xf4000000: // addpchi
			inst.ExOp = ExOpADDPCHI
		default:
			// Class D opcodes outside the branch and load-immediate
			// ranges have no encoding.
			if !inst.IsBcc && !isJ {
				inst.Valid = false
			}
		}
	}

	// MEM operation selection. Register-indexed forms (class A) carry
	// the mem op in the low bits, immediate forms in the top opcode.
	if inst.IsMemLoad {
		if isLdx {
			inst.MemOp = MemOp(iword & 0x0000007f)
		} else {
			inst.MemOp = MemOp(iword >> 26)
		}
	} else if inst.IsMemStore {
		if isStx {
			inst.MemOp = MemOp(iword & 0x0000007f)
		} else {
			inst.MemOp = MemOp(iword >> 26)
		}
	}

	return inst
}
