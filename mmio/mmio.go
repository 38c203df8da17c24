// Package mmio defines the memory-mapped I/O register map shared by
// guest programs and the presentation front-end.
//
// The registers live in ordinary guest RAM starting at Base; the core
// does not treat them specially beyond the word-granular atomicity the
// RAM already guarantees.
package mmio

import "github.com/mrisc32-sim/mr32sim/emu"

// Base is the start of the memory-mapped I/O region.
const Base = 0xc0000000

// System registers (offsets from Base).
const (
	RegCPUCLK    = Base + 0x08 // CPU clock frequency (Hz).
	RegVRAMSIZE  = Base + 0x0c // Video RAM size (bytes).
	RegVIDWIDTH  = Base + 0x14 // Native video width (pixels).
	RegVIDHEIGHT = Base + 0x18 // Native video height (pixels).
	RegVIDFPS    = Base + 0x1c // Refresh rate (16.16 fixed point).
	RegFRAMENO   = Base + 0x20 // Current frame number.
	RegSWITCHES  = Base + 0x28 // Board switch state.
	RegKEYEVENT  = Base + 0x30 // Keyboard event FIFO head.
	RegMOUSEPOS  = Base + 0x34 // Mouse position (x | y<<16).
)

// GPU configuration registers, written by the guest and polled by the
// presentation layer each frame.
const (
	GPUBase       = Base + 0x100
	RegGPUAddr    = GPUBase + 0  // Framebuffer start address.
	RegGPUWidth   = GPUBase + 4  // Framebuffer width (pixels).
	RegGPUHeight  = GPUBase + 8  // Framebuffer height (pixels).
	RegGPUDepth   = GPUBase + 12 // Bits per pixel.
	RegGPUFrameNo = GPUBase + 32 // Presented frame number.
	RegGPUPalAddr = GPUBase + 36 // Palette start address.
)

// Keyboard event field layout (RegKEYEVENT):
//
//	bits 0-15:  event counter
//	bits 16-24: scancode
//	bit  31:    1 = release, 0 = press
const (
	KeyEventCounterMask = 0x0000ffff
	KeyEventCodeShift   = 16
	KeyEventRelease     = 0x80000000
)

// Setup populates the boot-time MMIO fields. It is a no-op when the
// RAM does not cover the MMIO window (headless runs with small RAM).
func Setup(ram *emu.RAM) error {
	if !ram.ValidRange(Base, 64) {
		return nil
	}

	fields := map[uint32]uint32{
		RegCPUCLK:    70000000,
		RegVRAMSIZE:  128 * 1024,
		RegVIDWIDTH:  1920,
		RegVIDHEIGHT: 1080,
		RegVIDFPS:    60 * 65536,
		RegSWITCHES:  4,
	}
	for addr, value := range fields {
		if err := ram.Store32(addr, value); err != nil {
			return err
		}
	}
	return nil
}
