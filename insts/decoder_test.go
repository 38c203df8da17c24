package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mrisc32-sim/mr32sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Encoding class detection", func() {
		It("should classify a three-register word as class A", func() {
			// or r1, r2, r3
			inst := decoder.Decode(1<<21 | 2<<16 | 3<<9 | 0x10)

			Expect(inst.Class).To(Equal(insts.ClassA))
			Expect(inst.Valid).To(BeTrue())
		})

		It("should classify the low-bits carve-out as class B", func() {
			// Two-register form: low bits [6:2] all ones.
			inst := decoder.Decode(1<<21 | 2<<16 | 0x7c)

			Expect(inst.Class).To(Equal(insts.ClassB))
		})

		It("should classify an immediate ALU word as class C", func() {
			// or r1, r2, #5
			inst := decoder.Decode(0x10<<26 | 1<<21 | 2<<16 | 5)

			Expect(inst.Class).To(Equal(insts.ClassC))
		})

		It("should classify a 21-bit immediate word as class D", func() {
			// ldi r1, #42
			inst := decoder.Decode(0x3a<<26 | 1<<21 | 42)

			Expect(inst.Class).To(Equal(insts.ClassD))
		})

		It("should reject unassigned class D opcodes", func() {
			inst := decoder.Decode(0x3e << 26)

			Expect(inst.Valid).To(BeFalse())
		})
	})

	Describe("Field extraction", func() {
		It("should extract the three register fields", func() {
			inst := decoder.Decode(7<<21 | 13<<16 | 21<<9 | 0x15)

			Expect(inst.Reg1).To(Equal(uint32(7)))
			Expect(inst.Reg2).To(Equal(uint32(13)))
			Expect(inst.Reg3).To(Equal(uint32(21)))
		})

		It("should sign-extend a negative 15-bit immediate", func() {
			// or r1, r2, #-1
			inst := decoder.Decode(0x10<<26 | 1<<21 | 2<<16 | 0x7fff)

			Expect(inst.Imm15).To(Equal(uint32(0xffffffff)))
		})

		It("should keep a positive 15-bit immediate unchanged", func() {
			inst := decoder.Decode(0x10<<26 | 1<<21 | 2<<16 | 0x3fff)

			Expect(inst.Imm15).To(Equal(uint32(0x3fff)))
		})

		It("should sign-extend a negative 21-bit immediate", func() {
			inst := decoder.Decode(0x3a<<26 | 1<<21 | 0x1fc000)

			Expect(inst.Imm21).To(Equal(uint32(0xffffc000)))
		})

		It("should extract the packed mode for class A", func() {
			// add.b r1, r2, r3
			inst := decoder.Decode(1<<21 | 2<<16 | 3<<9 | uint32(insts.PackedByte)<<7 | 0x15)

			Expect(inst.PackedMode).To(Equal(insts.PackedByte))
		})

		It("should not decode a packed mode for class C", func() {
			inst := decoder.Decode(0x15<<26 | 1<<21 | 2<<16 | 0x180)

			Expect(inst.PackedMode).To(Equal(insts.PackedNone))
		})
	})

	Describe("Vector mode", func() {
		It("should decode all four modes for class A", func() {
			for mode := uint32(0); mode < 4; mode++ {
				inst := decoder.Decode(1<<21 | 2<<16 | 3<<9 | mode<<14 | 0x15)
				Expect(inst.VectorMode).To(Equal(insts.VectorMode(mode)))
			}
		})

		It("should mask class C down to stride mode", func() {
			inst := decoder.Decode(0x15<<26 | 1<<21 | 2<<16 | 1<<15 | 4)

			Expect(inst.VectorMode).To(Equal(insts.VectorStride))
		})

		It("should never decode a vector mode for class D", func() {
			inst := decoder.Decode(0x3a<<26 | 1<<21 | 1<<15 | 1<<14)

			Expect(inst.VectorMode).To(Equal(insts.VectorScalar))
		})
	})

	Describe("EX operation selection", func() {
		It("should take the class A operation from the low bits", func() {
			inst := decoder.Decode(1<<21 | 2<<16 | 3<<9 | 0x41)

			Expect(inst.ExOp).To(Equal(insts.ExOpMUL))
		})

		It("should build the class B composite operation", func() {
			inst := decoder.Decode(1<<21 | 2<<16 | 5<<9 | 0x7c)

			Expect(inst.ExOp).To(Equal(insts.ExOp(5<<8 | 0x7c)))
		})

		It("should take the class C operation from the top bits", func() {
			inst := decoder.Decode(0x16<<26 | 1<<21 | 2<<16 | 7)

			Expect(inst.ExOp).To(Equal(insts.ExOpSUB))
		})

		It("should map ldli to OR", func() {
			inst := decoder.Decode(0x3a<<26 | 1<<21 | 42)

			Expect(inst.ExOp).To(Equal(insts.ExOpOR))
			Expect(inst.DstReg).To(Equal(uint32(1)))
		})

		It("should map ldhi, ldhio and addpchi", func() {
			Expect(decoder.Decode(0x3b<<26 | 1<<21).ExOp).To(Equal(insts.ExOpLDHI))
			Expect(decoder.Decode(0x3c<<26 | 1<<21).ExOp).To(Equal(insts.ExOpLDHIO))
			Expect(decoder.Decode(0x3d<<26 | 1<<21).ExOp).To(Equal(insts.ExOpADDPCHI))
		})

		It("should force source A to the PC for addpchi", func() {
			inst := decoder.Decode(0x3d<<26 | 1<<21 | 0x100)

			Expect(inst.SrcRegA).To(Equal(uint32(insts.RegPC)))
		})
	})

	Describe("Memory operations", func() {
		It("should decode register-indexed loads from the low bits", func() {
			// ldw r1, r2, r3
			inst := decoder.Decode(1<<21 | 2<<16 | 3<<9 | 0x3)

			Expect(inst.IsMemLoad).To(BeTrue())
			Expect(inst.MemOp).To(Equal(insts.MemOpLoad32))
			Expect(inst.DstReg).To(Equal(uint32(1)))
		})

		It("should decode immediate-offset loads from the top bits", func() {
			// ldub r1, r2, #8
			inst := decoder.Decode(0x5<<26 | 1<<21 | 2<<16 | 8)

			Expect(inst.IsMemLoad).To(BeTrue())
			Expect(inst.MemOp).To(Equal(insts.MemOpLoadU8))
		})

		It("should decode stores and use reg1 as a source", func() {
			// stw r1, r2, #4
			inst := decoder.Decode(0xb<<26 | 1<<21 | 2<<16 | 4)

			Expect(inst.IsMemStore).To(BeTrue())
			Expect(inst.MemOp).To(Equal(insts.MemOpStore32))
			Expect(inst.Reg1IsSrc).To(BeTrue())
			Expect(inst.SrcRegC).To(Equal(uint32(1)))
			Expect(inst.DstReg).To(Equal(uint32(insts.RegZ)))
		})

		It("should decode ldea", func() {
			inst := decoder.Decode(0x7<<26 | 1<<21 | 2<<16 | 12)

			Expect(inst.IsMemLoad).To(BeTrue())
			Expect(inst.MemOp).To(Equal(insts.MemOpLDEA))
		})
	})

	Describe("Branches", func() {
		It("should decode conditional branches with their condition", func() {
			// bz r5, #16
			inst := decoder.Decode(uint32(insts.CondBZ)<<26 | 5<<21 | 16)

			Expect(inst.IsBcc).To(BeTrue())
			Expect(inst.BranchCond).To(Equal(uint32(insts.CondBZ)))
			Expect(inst.Reg1IsSrc).To(BeTrue())
			Expect(inst.DstReg).To(Equal(uint32(insts.RegZ)))
		})

		It("should decode all eight conditions", func() {
			for cond := uint32(insts.CondBZ); cond <= insts.CondBGT; cond++ {
				inst := decoder.Decode(cond<<26 | 1<<21 | 4)
				Expect(inst.IsBcc).To(BeTrue())
				Expect(inst.BranchCond).To(Equal(cond))
			}
		})

		It("should decode j as an unconditional jump", func() {
			inst := decoder.Decode(0x38<<26 | 2<<21 | 0x10)

			Expect(inst.IsJump).To(BeTrue())
			Expect(inst.IsSubroutineBranch).To(BeFalse())
		})

		It("should route jl through the adder to write LR", func() {
			inst := decoder.Decode(0x39<<26 | 2<<21 | 0x10)

			Expect(inst.IsJump).To(BeTrue())
			Expect(inst.IsSubroutineBranch).To(BeTrue())
			Expect(inst.SrcRegA).To(Equal(uint32(insts.RegPC)))
			Expect(inst.DstReg).To(Equal(uint32(insts.RegLR)))
			Expect(inst.ExOp).To(Equal(insts.ExOpADD))
		})
	})
})
