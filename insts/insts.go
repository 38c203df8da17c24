// Package insts provides MRISC32 instruction definitions and decoding.
package insts

// Register configuration.
const (
	// NumRegs is the number of scalar registers.
	NumRegs = 32

	// Log2VectorElements is the base-2 logarithm of the vector length.
	// Must be at least 4.
	Log2VectorElements = 5

	// VectorElements is the number of 32-bit lanes per vector register.
	VectorElements = 1 << Log2VectorElements

	// NumVectorRegs is the number of vector registers.
	NumVectorRegs = 32
)

// ResetPC is the address where execution starts after reset.
const ResetPC = 0x00000200

// SyscallBase is the start of the reserved PC window that traps to
// host-side simulator routines.
const SyscallBase = 0xffff0000

// Named scalar registers.
const (
	RegZ  = 0  // Always reads as zero.
	RegFP = 26 // Frame pointer.
	RegTP = 27 // Thread pointer.
	RegSP = 28 // Stack pointer.
	RegVL = 29 // Vector length.
	RegLR = 30 // Link register.
	RegPC = 31 // Program counter (not writable via WB).
)

// Class identifies the instruction encoding class.
type Class uint8

// Encoding classes.
const (
	ClassA Class = iota // Three-register format.
	ClassB              // Two-register format with extended sub-op.
	ClassC              // Register + 15-bit immediate format.
	ClassD              // 21-bit immediate format.
)

// PackedMode selects how an operation partitions a 32-bit word.
type PackedMode uint32

// Packed operation modes (instruction bits [8:7] for class A/B).
const (
	PackedNone     PackedMode = 0
	PackedByte     PackedMode = 1
	PackedHalfWord PackedMode = 2
)

// VectorMode selects the vector iteration behavior.
type VectorMode uint32

// Vector operation modes (instruction bits [15:14], masked per class).
const (
	VectorScalar        VectorMode = 0
	VectorFolding       VectorMode = 1
	VectorStride        VectorMode = 2
	VectorGatherScatter VectorMode = 3
)

// ExOp identifies the operation performed by the EX stage.
type ExOp uint32

// EX operations.
const (
	ExOpCPUID ExOp = 0x00

	ExOpLDHI    ExOp = 0x01 // b << 11
	ExOpLDHIO   ExOp = 0x02 // (b << 11) | 0x7ff
	ExOpADDPCHI ExOp = 0x03 // pc + (b << 11)

	ExOpOR   ExOp = 0x10
	ExOpNOR  ExOp = 0x11
	ExOpAND  ExOp = 0x12
	ExOpBIC  ExOp = 0x13
	ExOpXOR  ExOp = 0x14
	ExOpADD  ExOp = 0x15
	ExOpSUB  ExOp = 0x16
	ExOpSEQ  ExOp = 0x17
	ExOpSNE  ExOp = 0x18
	ExOpSLT  ExOp = 0x19
	ExOpSLTU ExOp = 0x1a
	ExOpSLE  ExOp = 0x1b
	ExOpSLEU ExOp = 0x1c
	ExOpMIN  ExOp = 0x1d
	ExOpMAX  ExOp = 0x1e
	ExOpMINU ExOp = 0x1f
	ExOpMAXU ExOp = 0x20

	ExOpASR  ExOp = 0x21
	ExOpLSL  ExOp = 0x22
	ExOpLSR  ExOp = 0x23
	ExOpSHUF ExOp = 0x24

	ExOpCLZ    ExOp = 0x31
	ExOpREV    ExOp = 0x32
	ExOpPACK   ExOp = 0x33
	ExOpPACKS  ExOp = 0x34
	ExOpPACKSU ExOp = 0x35

	ExOpADDS  ExOp = 0x38
	ExOpADDSU ExOp = 0x39
	ExOpADDH  ExOp = 0x3a
	ExOpADDHU ExOp = 0x3b
	ExOpSUBS  ExOp = 0x3c
	ExOpSUBSU ExOp = 0x3d
	ExOpSUBH  ExOp = 0x3e
	ExOpSUBHU ExOp = 0x3f

	ExOpMULQ   ExOp = 0x40
	ExOpMUL    ExOp = 0x41
	ExOpMULHI  ExOp = 0x42
	ExOpMULHIU ExOp = 0x43

	ExOpDIV  ExOp = 0x44
	ExOpDIVU ExOp = 0x45
	ExOpREM  ExOp = 0x46
	ExOpREMU ExOp = 0x47

	ExOpITOF    ExOp = 0x50
	ExOpUTOF    ExOp = 0x51
	ExOpFTOI    ExOp = 0x52
	ExOpFTOU    ExOp = 0x53
	ExOpFTOIR   ExOp = 0x54
	ExOpFTOUR   ExOp = 0x55
	ExOpFPACK   ExOp = 0x56
	ExOpFUNPL   ExOp = 0x57
	ExOpFUNPH   ExOp = 0x58
	ExOpFADD    ExOp = 0x59
	ExOpFSUB    ExOp = 0x5a
	ExOpFMUL    ExOp = 0x5b
	ExOpFDIV    ExOp = 0x5c
	ExOpFSQRT   ExOp = 0x5d
	ExOpFSEQ    ExOp = 0x5e
	ExOpFSNE    ExOp = 0x5f
	ExOpFSLT    ExOp = 0x60
	ExOpFSLE    ExOp = 0x61
	ExOpFSUNORD ExOp = 0x62
	ExOpFSORD   ExOp = 0x63
	ExOpFMIN    ExOp = 0x64
	ExOpFMAX    ExOp = 0x65
)

// MemOp identifies the operation performed by the MEM stage.
type MemOp uint32

// Memory operations.
const (
	MemOpNone    MemOp = 0x0
	MemOpLoad8   MemOp = 0x1 // Sign-extending byte load.
	MemOpLoad16  MemOp = 0x2 // Sign-extending half-word load.
	MemOpLoad32  MemOp = 0x3
	MemOpLoadU8  MemOp = 0x5 // Zero-extending byte load.
	MemOpLoadU16 MemOp = 0x6 // Zero-extending half-word load.
	MemOpLDEA    MemOp = 0x7 // Effective address only, no access.
	MemOpStore8  MemOp = 0x9
	MemOpStore16 MemOp = 0xa
	MemOpStore32 MemOp = 0xb
)

// Branch condition codes (class D opcode space 0x30-0x37, bits [31:26]).
const (
	CondBZ  = 0x30 // Branch if zero.
	CondBNZ = 0x31 // Branch if not zero.
	CondBS  = 0x32 // Branch if all bits set.
	CondBNS = 0x33 // Branch if not all bits set.
	CondBLT = 0x34 // Branch if negative.
	CondBGE = 0x35 // Branch if non-negative.
	CondBLE = 0x36 // Branch if negative or zero.
	CondBGT = 0x37 // Branch if positive and non-zero.
)
