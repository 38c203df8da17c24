// Package emu provides functional MRISC32 emulation.
package emu

import (
	"math"

	"github.com/mrisc32-sim/mr32sim/insts"
	"github.com/mrisc32-sim/mr32sim/packedfloat"
)

// CPU feature flags reported by CPUID.
const (
	featVEC  = 1 << 0 // Vector processor.
	featPO   = 1 << 1 // Packed operations.
	featMUL  = 1 << 2 // Integer multiply.
	featDIV  = 1 << 3 // Integer divide.
	featSA   = 1 << 4 // Saturating arithmetic.
	featFP   = 1 << 5 // Floating point.
	featSQRT = 1 << 6 // Float square root.
)

// cpuid32 answers the CPUID query. (0,0) is the vector length, (0,1)
// its base-2 logarithm, (1,0) the feature bitmap.
func cpuid32(a, b uint32) uint32 {
	switch a {
	case 0:
		switch b {
		case 0:
			return insts.VectorElements
		case 1:
			return insts.Log2VectorElements
		}
		return 0
	case 1:
		if b == 0 {
			return featVEC | featPO | featMUL | featDIV | featSA | featFP | featSQRT
		}
		return 0
	default:
		return 0
	}
}

func asF32(x uint32) float32 {
	return math.Float32frombits(x)
}

func asU32(x float32) uint32 {
	return math.Float32bits(x)
}

func float32IsNaN(x uint32) bool {
	return x&0x7f800000 == 0x7f800000 && x&0x007fffff != 0
}

// == SCALAR FLOAT HELPERS ==

func fpack32(a, b uint32) uint32 {
	return packedfloat.FromF32x2(asF32(a), asF32(b)).PackF()
}

func fpack16x2(a, b uint32) uint32 {
	return packedfloat.FromF16x4(packedfloat.DecodeF16x2(a), packedfloat.DecodeF16x2(b)).PackF()
}

func itof32(a, b uint32) uint32 {
	f := float32(int32(a))
	return asU32(float32(math.Ldexp(float64(f), -int(int32(b)))))
}

func utof32(a, b uint32) uint32 {
	f := float32(a)
	return asU32(float32(math.Ldexp(float64(f), -int(int32(b)))))
}

func ftoiScale(a, b uint32) float32 {
	return float32(math.Ldexp(float64(asF32(a)), int(int32(b))))
}

func ftoi32(a, b uint32) uint32 {
	return uint32(int32(ftoiScale(a, b)))
}

func ftou32(a, b uint32) uint32 {
	return uint32(ftoiScale(a, b))
}

func ftoir32(a, b uint32) uint32 {
	return uint32(int32(math.RoundToEven(float64(ftoiScale(a, b)))))
}

func ftour32(a, b uint32) uint32 {
	return uint32(math.RoundToEven(float64(ftoiScale(a, b))))
}

// execute runs one EX operation on the two source operands and returns
// the result word. Address generation for memory operations happens in
// the run loop, not here.
func execute(op insts.ExOp, pm insts.PackedMode, a, b uint32) (uint32, error) {
	switch op {
	case insts.ExOpCPUID:
		return cpuid32(a, b), nil

	case insts.ExOpLDHI:
		return b << 11, nil
	case insts.ExOpLDHIO:
		return (b << 11) | 0x7ff, nil
	case insts.ExOpADDPCHI:
		return a + (b << 11), nil

	case insts.ExOpOR:
		return a | b, nil
	case insts.ExOpNOR:
		return ^(a | b), nil
	case insts.ExOpAND:
		return a & b, nil
	case insts.ExOpBIC:
		return a &^ b, nil
	case insts.ExOpXOR:
		return a ^ b, nil

	case insts.ExOpADD:
		switch pm {
		case insts.PackedByte:
			return add8x4(a, b), nil
		case insts.PackedHalfWord:
			return add16x2(a, b), nil
		default:
			return add32(a, b), nil
		}
	case insts.ExOpSUB:
		switch pm {
		case insts.PackedByte:
			return sub8x4(a, b), nil
		case insts.PackedHalfWord:
			return sub16x2(a, b), nil
		default:
			return sub32(a, b), nil
		}

	case insts.ExOpSEQ:
		switch pm {
		case insts.PackedByte:
			return set8x4(a, b, func(x, y uint8) bool { return x == y }), nil
		case insts.PackedHalfWord:
			return set16x2(a, b, func(x, y uint16) bool { return x == y }), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return x == y }), nil
		}
	case insts.ExOpSNE:
		switch pm {
		case insts.PackedByte:
			return set8x4(a, b, func(x, y uint8) bool { return x != y }), nil
		case insts.PackedHalfWord:
			return set16x2(a, b, func(x, y uint16) bool { return x != y }), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return x != y }), nil
		}
	case insts.ExOpSLT:
		switch pm {
		case insts.PackedByte:
			return set8x4(a, b, func(x, y uint8) bool { return int8(x) < int8(y) }), nil
		case insts.PackedHalfWord:
			return set16x2(a, b, func(x, y uint16) bool { return int16(x) < int16(y) }), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return int32(x) < int32(y) }), nil
		}
	case insts.ExOpSLTU:
		switch pm {
		case insts.PackedByte:
			return set8x4(a, b, func(x, y uint8) bool { return x < y }), nil
		case insts.PackedHalfWord:
			return set16x2(a, b, func(x, y uint16) bool { return x < y }), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return x < y }), nil
		}
	case insts.ExOpSLE:
		switch pm {
		case insts.PackedByte:
			return set8x4(a, b, func(x, y uint8) bool { return int8(x) <= int8(y) }), nil
		case insts.PackedHalfWord:
			return set16x2(a, b, func(x, y uint16) bool { return int16(x) <= int16(y) }), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return int32(x) <= int32(y) }), nil
		}
	case insts.ExOpSLEU:
		switch pm {
		case insts.PackedByte:
			return set8x4(a, b, func(x, y uint8) bool { return x <= y }), nil
		case insts.PackedHalfWord:
			return set16x2(a, b, func(x, y uint16) bool { return x <= y }), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return x <= y }), nil
		}

	case insts.ExOpMIN:
		switch pm {
		case insts.PackedByte:
			return sel32(a, b, set8x4(a, b, func(x, y uint8) bool { return int8(x) < int8(y) })), nil
		case insts.PackedHalfWord:
			return sel32(a, b, set16x2(a, b, func(x, y uint16) bool { return int16(x) < int16(y) })), nil
		default:
			return sel32(a, b, set32(a, b, func(x, y uint32) bool { return int32(x) < int32(y) })), nil
		}
	case insts.ExOpMAX:
		switch pm {
		case insts.PackedByte:
			return sel32(a, b, set8x4(a, b, func(x, y uint8) bool { return int8(x) > int8(y) })), nil
		case insts.PackedHalfWord:
			return sel32(a, b, set16x2(a, b, func(x, y uint16) bool { return int16(x) > int16(y) })), nil
		default:
			return sel32(a, b, set32(a, b, func(x, y uint32) bool { return int32(x) > int32(y) })), nil
		}
	case insts.ExOpMINU:
		switch pm {
		case insts.PackedByte:
			return sel32(a, b, set8x4(a, b, func(x, y uint8) bool { return x < y })), nil
		case insts.PackedHalfWord:
			return sel32(a, b, set16x2(a, b, func(x, y uint16) bool { return x < y })), nil
		default:
			return sel32(a, b, set32(a, b, func(x, y uint32) bool { return x < y })), nil
		}
	case insts.ExOpMAXU:
		switch pm {
		case insts.PackedByte:
			return sel32(a, b, set8x4(a, b, func(x, y uint8) bool { return x > y })), nil
		case insts.PackedHalfWord:
			return sel32(a, b, set16x2(a, b, func(x, y uint16) bool { return x > y })), nil
		default:
			return sel32(a, b, set32(a, b, func(x, y uint32) bool { return x > y })), nil
		}

	case insts.ExOpASR:
		switch pm {
		case insts.PackedByte:
			return asr8x4(a, b), nil
		case insts.PackedHalfWord:
			return asr16x2(a, b), nil
		default:
			return asr32(a, b), nil
		}
	case insts.ExOpLSL:
		switch pm {
		case insts.PackedByte:
			return lsl8x4(a, b), nil
		case insts.PackedHalfWord:
			return lsl16x2(a, b), nil
		default:
			return lsl32(a, b), nil
		}
	case insts.ExOpLSR:
		switch pm {
		case insts.PackedByte:
			return lsr8x4(a, b), nil
		case insts.PackedHalfWord:
			return lsr16x2(a, b), nil
		default:
			return lsr32(a, b), nil
		}

	case insts.ExOpSHUF:
		return shuf32(a, b), nil

	case insts.ExOpCLZ:
		switch pm {
		case insts.PackedByte:
			return clz8x4(a), nil
		case insts.PackedHalfWord:
			return clz16x2(a), nil
		default:
			return clz32(a), nil
		}
	case insts.ExOpREV:
		switch pm {
		case insts.PackedByte:
			return rev8x4(a), nil
		case insts.PackedHalfWord:
			return rev16x2(a), nil
		default:
			return rev32(a), nil
		}

	case insts.ExOpPACK:
		switch pm {
		case insts.PackedByte:
			return pack8x4(a, b), nil
		case insts.PackedHalfWord:
			return pack16x2(a, b), nil
		default:
			return pack32(a, b), nil
		}
	case insts.ExOpPACKS:
		switch pm {
		case insts.PackedByte:
			return packs8x4(a, b), nil
		case insts.PackedHalfWord:
			return packs16x2(a, b), nil
		default:
			return packs32(a, b), nil
		}
	case insts.ExOpPACKSU:
		switch pm {
		case insts.PackedByte:
			return packsu8x4(a, b), nil
		case insts.PackedHalfWord:
			return packsu16x2(a, b), nil
		default:
			return packsu32(a, b), nil
		}

	case insts.ExOpADDS:
		switch pm {
		case insts.PackedByte:
			return saturatingOp8x4(a, b, func(x, y int16) int16 { return x + y }), nil
		case insts.PackedHalfWord:
			return saturatingOp16x2(a, b, func(x, y int32) int32 { return x + y }), nil
		default:
			return saturatingOp32(a, b, func(x, y int64) int64 { return x + y }), nil
		}
	case insts.ExOpADDSU:
		switch pm {
		case insts.PackedByte:
			return saturatingOpU8x4(a, b, func(x, y uint16) uint16 { return x + y }), nil
		case insts.PackedHalfWord:
			return saturatingOpU16x2(a, b, func(x, y uint32) uint32 { return x + y }), nil
		default:
			return saturatingOpU32(a, b, func(x, y uint64) uint64 { return x + y }), nil
		}
	case insts.ExOpADDH:
		switch pm {
		case insts.PackedByte:
			return halvingOp8x4(a, b, func(x, y int16) int16 { return x + y }), nil
		case insts.PackedHalfWord:
			return halvingOp16x2(a, b, func(x, y int32) int32 { return x + y }), nil
		default:
			return halvingOp32(a, b, func(x, y int64) int64 { return x + y }), nil
		}
	case insts.ExOpADDHU:
		switch pm {
		case insts.PackedByte:
			return halvingOpU8x4(a, b, func(x, y uint16) uint16 { return x + y }), nil
		case insts.PackedHalfWord:
			return halvingOpU16x2(a, b, func(x, y uint32) uint32 { return x + y }), nil
		default:
			return halvingOpU32(a, b, func(x, y uint64) uint64 { return x + y }), nil
		}
	case insts.ExOpSUBS:
		switch pm {
		case insts.PackedByte:
			return saturatingOp8x4(a, b, func(x, y int16) int16 { return x - y }), nil
		case insts.PackedHalfWord:
			return saturatingOp16x2(a, b, func(x, y int32) int32 { return x - y }), nil
		default:
			return saturatingOp32(a, b, func(x, y int64) int64 { return x - y }), nil
		}
	case insts.ExOpSUBSU:
		switch pm {
		case insts.PackedByte:
			return saturatingOpU8x4(a, b, func(x, y uint16) uint16 { return x - y }), nil
		case insts.PackedHalfWord:
			return saturatingOpU16x2(a, b, func(x, y uint32) uint32 { return x - y }), nil
		default:
			return saturatingOpU32(a, b, func(x, y uint64) uint64 { return x - y }), nil
		}
	case insts.ExOpSUBH:
		switch pm {
		case insts.PackedByte:
			return halvingOp8x4(a, b, func(x, y int16) int16 { return x - y }), nil
		case insts.PackedHalfWord:
			return halvingOp16x2(a, b, func(x, y int32) int32 { return x - y }), nil
		default:
			return halvingOp32(a, b, func(x, y int64) int64 { return x - y }), nil
		}
	case insts.ExOpSUBHU:
		switch pm {
		case insts.PackedByte:
			return halvingOpU8x4(a, b, func(x, y uint16) uint16 { return x - y }), nil
		case insts.PackedHalfWord:
			return halvingOpU16x2(a, b, func(x, y uint32) uint32 { return x - y }), nil
		default:
			return halvingOpU32(a, b, func(x, y uint64) uint64 { return x - y }), nil
		}

	case insts.ExOpMULQ:
		switch pm {
		case insts.PackedByte:
			return mulq7x4(a, b), nil
		case insts.PackedHalfWord:
			return mulq15x2(a, b), nil
		default:
			return mulq31(a, b), nil
		}
	case insts.ExOpMUL:
		switch pm {
		case insts.PackedByte:
			return mul8x4(a, b), nil
		case insts.PackedHalfWord:
			return mul16x2(a, b), nil
		default:
			return mul32(a, b), nil
		}
	case insts.ExOpMULHI:
		switch pm {
		case insts.PackedByte:
			return mulhi8x4(a, b), nil
		case insts.PackedHalfWord:
			return mulhi16x2(a, b), nil
		default:
			return mulhi32(a, b), nil
		}
	case insts.ExOpMULHIU:
		switch pm {
		case insts.PackedByte:
			return mulhiu8x4(a, b), nil
		case insts.PackedHalfWord:
			return mulhiu16x2(a, b), nil
		default:
			return mulhiu32(a, b), nil
		}

	case insts.ExOpDIV:
		switch pm {
		case insts.PackedByte:
			return div8x4(a, b), nil
		case insts.PackedHalfWord:
			return div16x2(a, b), nil
		default:
			return div32(a, b), nil
		}
	case insts.ExOpDIVU:
		switch pm {
		case insts.PackedByte:
			return divu8x4(a, b), nil
		case insts.PackedHalfWord:
			return divu16x2(a, b), nil
		default:
			return divu32(a, b), nil
		}
	case insts.ExOpREM:
		switch pm {
		case insts.PackedByte:
			return rem8x4(a, b), nil
		case insts.PackedHalfWord:
			return rem16x2(a, b), nil
		default:
			return rem32(a, b), nil
		}
	case insts.ExOpREMU:
		switch pm {
		case insts.PackedByte:
			return remu8x4(a, b), nil
		case insts.PackedHalfWord:
			return remu16x2(a, b), nil
		default:
			return remu32(a, b), nil
		}

	case insts.ExOpITOF:
		switch pm {
		case insts.PackedByte:
			return packedfloat.ItoF8x4(a, b).PackF(), nil
		case insts.PackedHalfWord:
			return packedfloat.ItoF16x2(a, b).PackF(), nil
		default:
			return itof32(a, b), nil
		}
	case insts.ExOpUTOF:
		switch pm {
		case insts.PackedByte:
			return packedfloat.UtoF8x4(a, b).PackF(), nil
		case insts.PackedHalfWord:
			return packedfloat.UtoF16x2(a, b).PackF(), nil
		default:
			return utof32(a, b), nil
		}
	case insts.ExOpFTOI:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).PackI(b), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).PackI(b), nil
		default:
			return ftoi32(a, b), nil
		}
	case insts.ExOpFTOU:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).PackU(b), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).PackU(b), nil
		default:
			return ftou32(a, b), nil
		}
	case insts.ExOpFTOIR:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).PackIR(b), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).PackIR(b), nil
		default:
			return ftoir32(a, b), nil
		}
	case insts.ExOpFTOUR:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).PackUR(b), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).PackUR(b), nil
		default:
			return ftour32(a, b), nil
		}

	case insts.ExOpFPACK:
		switch pm {
		case insts.PackedByte:
			// No narrower width to pack into.
			return 0, nil
		case insts.PackedHalfWord:
			return fpack16x2(a, b), nil
		default:
			return fpack32(a, b), nil
		}
	case insts.ExOpFUNPL:
		switch pm {
		case insts.PackedByte:
			return 0, nil
		case insts.PackedHalfWord:
			f := packedfloat.DecodeF8x4(a)
			return packedfloat.FromF32x2(f[0], f[2]).PackF(), nil
		default:
			return asU32(packedfloat.DecodeF16x2(a)[0]), nil
		}
	case insts.ExOpFUNPH:
		switch pm {
		case insts.PackedByte:
			return 0, nil
		case insts.PackedHalfWord:
			f := packedfloat.DecodeF8x4(a)
			return packedfloat.FromF32x2(f[1], f[3]).PackF(), nil
		default:
			return asU32(packedfloat.DecodeF16x2(a)[1]), nil
		}

	case insts.ExOpFADD:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).Add(packedfloat.DecodeF8x4(b)).PackF(), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).Add(packedfloat.DecodeF16x2(b)).PackF(), nil
		default:
			return asU32(asF32(a) + asF32(b)), nil
		}
	case insts.ExOpFSUB:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).Sub(packedfloat.DecodeF8x4(b)).PackF(), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).Sub(packedfloat.DecodeF16x2(b)).PackF(), nil
		default:
			return asU32(asF32(a) - asF32(b)), nil
		}
	case insts.ExOpFMUL:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).Mul(packedfloat.DecodeF8x4(b)).PackF(), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).Mul(packedfloat.DecodeF16x2(b)).PackF(), nil
		default:
			return asU32(asF32(a) * asF32(b)), nil
		}
	case insts.ExOpFDIV:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).Div(packedfloat.DecodeF8x4(b)).PackF(), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).Div(packedfloat.DecodeF16x2(b)).PackF(), nil
		default:
			return asU32(asF32(a) / asF32(b)), nil
		}
	case insts.ExOpFSQRT:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).Sqrt().PackF(), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).Sqrt().PackF(), nil
		default:
			return asU32(float32(math.Sqrt(float64(asF32(a))))), nil
		}
	case insts.ExOpFMIN:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).Min(packedfloat.DecodeF8x4(b)).PackF(), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).Min(packedfloat.DecodeF16x2(b)).PackF(), nil
		default:
			return asU32(float32(math.Min(float64(asF32(a)), float64(asF32(b))))), nil
		}
	case insts.ExOpFMAX:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).Max(packedfloat.DecodeF8x4(b)).PackF(), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).Max(packedfloat.DecodeF16x2(b)).PackF(), nil
		default:
			return asU32(float32(math.Max(float64(asF32(a)), float64(asF32(b))))), nil
		}

	case insts.ExOpFSEQ:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).FSEQ(packedfloat.DecodeF8x4(b)), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).FSEQ(packedfloat.DecodeF16x2(b)), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return asF32(x) == asF32(y) }), nil
		}
	case insts.ExOpFSNE:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).FSNE(packedfloat.DecodeF8x4(b)), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).FSNE(packedfloat.DecodeF16x2(b)), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return asF32(x) != asF32(y) }), nil
		}
	case insts.ExOpFSLT:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).FSLT(packedfloat.DecodeF8x4(b)), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).FSLT(packedfloat.DecodeF16x2(b)), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return asF32(x) < asF32(y) }), nil
		}
	case insts.ExOpFSLE:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).FSLE(packedfloat.DecodeF8x4(b)), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).FSLE(packedfloat.DecodeF16x2(b)), nil
		default:
			return set32(a, b, func(x, y uint32) bool { return asF32(x) <= asF32(y) }), nil
		}
	case insts.ExOpFSUNORD:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).FSUNORD(packedfloat.DecodeF8x4(b)), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).FSUNORD(packedfloat.DecodeF16x2(b)), nil
		default:
			return set32(a, b, func(x, y uint32) bool {
				return float32IsNaN(x) || float32IsNaN(y)
			}), nil
		}
	case insts.ExOpFSORD:
		switch pm {
		case insts.PackedByte:
			return packedfloat.DecodeF8x4(a).FSORD(packedfloat.DecodeF8x4(b)), nil
		case insts.PackedHalfWord:
			return packedfloat.DecodeF16x2(a).FSORD(packedfloat.DecodeF16x2(b)), nil
		default:
			return set32(a, b, func(x, y uint32) bool {
				return !float32IsNaN(x) && !float32IsNaN(y)
			}), nil
		}
	}

	return 0, &UnimplementedOpError{ExOp: op, Packed: pm}
}
