// Package gfx provides the graphical presentation front-end.
//
// The front-end runs on the main thread while the core executes in its
// own goroutine. Each frame it re-reads the GPU configuration
// registers out of guest RAM, converts the framebuffer to RGBA and
// presents it, and publishes keyboard/mouse events back through the
// MMIO window. All shared state goes through the RAM's word-granular
// atomic accessors; termination is cooperative via the core's
// Terminate method.
package gfx

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/mrisc32-sim/mr32sim/emu"
	"github.com/mrisc32-sim/mr32sim/mmio"
)

// Config holds the fallback video mode used while the guest has not
// programmed the GPU registers yet.
type Config struct {
	Addr    uint32 // Framebuffer address.
	PalAddr uint32 // Palette address.
	Width   uint32
	Height  uint32
	Depth   uint32 // Bits per pixel: 1, 8, 16 or 32.
}

// DefaultConfig mirrors the simulator's historical defaults.
func DefaultConfig() Config {
	return Config{
		Addr:   0x00008000,
		Width:  256,
		Height: 256,
		Depth:  8,
	}
}

// Frontend is the ebiten game that presents the guest framebuffer.
type Frontend struct {
	ram  *emu.RAM
	core emu.CPU
	cfg  Config

	width   uint32
	height  uint32
	depth   uint32
	fbAddr  uint32
	palAddr uint32

	frameNo       uint32
	keyEventCount uint32

	pixels []byte // RGBA staging buffer.
	frame  *ebiten.Image
}

// New creates a front-end bound to the guest RAM and core.
func New(ram *emu.RAM, core emu.CPU, cfg Config) *Frontend {
	return &Frontend{
		ram:  ram,
		core: core,
		cfg:  cfg,
	}
}

// Run opens the window and blocks until it is closed. The core is
// asked to terminate before Run returns.
func (f *Frontend) Run() error {
	f.configure()
	ebiten.SetWindowSize(int(f.width), int(f.height))
	ebiten.SetWindowTitle("MRISC32 Simulator")
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetVsyncEnabled(true)

	// RunGame returns nil when Update reports ebiten.Termination
	// (window closed); anything else is a real error.
	err := ebiten.RunGame(f)
	f.core.Terminate()
	return err
}

// mem32OrDefault reads a GPU register, substituting the configured
// default while the guest has left it at zero.
func (f *Frontend) mem32OrDefault(addr, defaultValue uint32) uint32 {
	v, err := f.ram.Load32(addr)
	if err != nil || v == 0 {
		return defaultValue
	}
	return v
}

// configure re-reads the video mode from the GPU registers.
func (f *Frontend) configure() {
	f.fbAddr = f.mem32OrDefault(mmio.RegGPUAddr, f.cfg.Addr)
	f.palAddr = f.mem32OrDefault(mmio.RegGPUPalAddr, f.cfg.PalAddr)
	width := f.mem32OrDefault(mmio.RegGPUWidth, f.cfg.Width)
	height := f.mem32OrDefault(mmio.RegGPUHeight, f.cfg.Height)
	depth := f.mem32OrDefault(mmio.RegGPUDepth, f.cfg.Depth)

	if width == f.width && height == f.height && depth == f.depth {
		return
	}
	f.width = width
	f.height = height
	f.depth = depth
	f.pixels = make([]byte, width*height*4)
	f.frame = ebiten.NewImage(int(width), int(height))
	ebiten.SetWindowSize(int(width), int(height))
}

// Update polls input and publishes it through the MMIO window.
func (f *Frontend) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	f.configure()

	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		f.publishKey(key, false)
	}
	for _, key := range inpututil.AppendJustReleasedKeys(nil) {
		f.publishKey(key, true)
	}

	x, y := ebiten.CursorPosition()
	mousePos := (uint32(x) & 0xffff) | (uint32(y) << 16)
	_ = f.ram.Store32(mmio.RegMOUSEPOS, mousePos)

	return nil
}

// publishKey writes one event to the KEYEVENT register:
// counter | scancode<<16 | release bit.
func (f *Frontend) publishKey(key ebiten.Key, release bool) {
	code, ok := scancodes[key]
	if !ok {
		return
	}
	event := (code << mmio.KeyEventCodeShift) | (f.keyEventCount & mmio.KeyEventCounterMask)
	f.keyEventCount++
	if release {
		event |= mmio.KeyEventRelease
	}
	_ = f.ram.Store32(mmio.RegKEYEVENT, event)
}

// Draw converts the guest framebuffer and presents it.
func (f *Frontend) Draw(screen *ebiten.Image) {
	_ = f.ram.Store32(mmio.RegFRAMENO, f.frameNo)
	_ = f.ram.Store32(mmio.RegGPUFrameNo, f.frameNo)
	f.frameNo++

	if err := f.convertFrame(); err != nil {
		// The guest has programmed a mode that does not fit in RAM;
		// skip the frame rather than kill the window.
		return
	}
	f.frame.WritePixels(f.pixels)
	screen.DrawImage(f.frame, nil)
}

// Layout reports the logical screen size: the guest framebuffer size.
func (f *Frontend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(f.width), int(f.height)
}

// convertFrame translates the guest framebuffer into the RGBA staging
// buffer according to the current depth.
func (f *Frontend) convertFrame() error {
	switch f.depth {
	case 32:
		return f.convert32()
	case 16:
		return f.convert16()
	case 8:
		return f.convert8()
	case 1:
		return f.convert1()
	default:
		return fmt.Errorf("invalid pixel format: %d bpp", f.depth)
	}
}

// paletteEntry reads one palette slot: B, G, R, A byte order in guest
// memory.
func (f *Frontend) paletteEntry(index uint32) (r, g, b byte, err error) {
	v, err := f.ram.Load32(f.palAddr + index*4)
	if err != nil {
		return 0, 0, 0, err
	}
	return byte(v >> 16), byte(v >> 8), byte(v), nil
}

func (f *Frontend) convert32() error {
	count := f.width * f.height
	src, err := f.ram.ReadBytes(f.fbAddr, count*4)
	if err != nil {
		return err
	}
	// Guest pixels are BGRA.
	for i := uint32(0); i < count; i++ {
		f.pixels[i*4+0] = src[i*4+2]
		f.pixels[i*4+1] = src[i*4+1]
		f.pixels[i*4+2] = src[i*4+0]
		f.pixels[i*4+3] = 0xff
	}
	return nil
}

func (f *Frontend) convert16() error {
	count := f.width * f.height
	src, err := f.ram.ReadBytes(f.fbAddr, count*2)
	if err != nil {
		return err
	}
	// 1:5:5:5 BGR, low bits first.
	for i := uint32(0); i < count; i++ {
		v := uint16(src[i*2]) | uint16(src[i*2+1])<<8
		b := byte(v&31) << 3
		g := byte((v>>5)&31) << 3
		r := byte((v>>10)&31) << 3
		f.pixels[i*4+0] = r
		f.pixels[i*4+1] = g
		f.pixels[i*4+2] = b
		f.pixels[i*4+3] = 0xff
	}
	return nil
}

func (f *Frontend) convert8() error {
	count := f.width * f.height
	src, err := f.ram.ReadBytes(f.fbAddr, count)
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		r, g, b, perr := f.paletteEntry(uint32(src[i]))
		if perr != nil {
			return perr
		}
		f.pixels[i*4+0] = r
		f.pixels[i*4+1] = g
		f.pixels[i*4+2] = b
		f.pixels[i*4+3] = 0xff
	}
	return nil
}

func (f *Frontend) convert1() error {
	stride := (f.width + 7) / 8
	src, err := f.ram.ReadBytes(f.fbAddr, stride*f.height)
	if err != nil {
		return err
	}
	for y := uint32(0); y < f.height; y++ {
		for x := uint32(0); x < f.width; x++ {
			bit := (src[y*stride+x/8] >> (x & 7)) & 1
			// Monochrome uses the palette ends.
			var index uint32
			if bit != 0 {
				index = 255
			}
			r, g, b, perr := f.paletteEntry(index)
			if perr != nil {
				return perr
			}
			i := (y*f.width + x) * 4
			f.pixels[i+0] = r
			f.pixels[i+1] = g
			f.pixels[i+2] = b
			f.pixels[i+3] = 0xff
		}
	}
	return nil
}
