// Package main provides the mr32sim entry point: an MRISC32 CPU
// simulator.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mrisc32-sim/mr32sim/emu"
	"github.com/mrisc32-sim/mr32sim/gfx"
	"github.com/mrisc32-sim/mr32sim/loader"
	"github.com/mrisc32-sim/mr32sim/mmio"
)

var (
	verbose    = flag.Bool("v", false, "Print stats")
	gfxEnabled = flag.Bool("g", false, "Enable graphics")
	gfxAddr    = flag.Uint("gfx-addr", 0x8000, "Framebuffer address")
	gfxPalette = flag.Uint("gfx-palette", 0, "Palette address")
	gfxWidth   = flag.Uint("gfx-width", 256, "Framebuffer width")
	gfxHeight  = flag.Uint("gfx-height", 256, "Framebuffer height")
	gfxDepth   = flag.Uint("gfx-depth", 8, "Framebuffer depth (bits per pixel)")
	tracePath  = flag.String("t", "", "Enable debug trace, writing records to FILE")
	ramSize    = flag.Uint("R", 0x1000000, "RAM size in bytes")
	binAddr    = flag.String("A", "", "Program load address (default: taken from the file)")
	maxCycles  = flag.Int64("c", -1, "Maximum number of CPU cycles to simulate (-1 = unbounded)")
	dumpRange  = flag.String("dump-ram", "", "Dump a RAM range after the run (begin:end:file)")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: mr32sim [options] bin-file\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	code, err := run(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run(binFile string) (int, error) {
	// Initialize the RAM and load the program image.
	ram := emu.NewRAM(uint32(*ramSize))

	overrideAddr := *binAddr != ""
	var addr uint32
	if overrideAddr {
		v, err := strconv.ParseUint(*binAddr, 0, 32)
		if err != nil {
			return 1, fmt.Errorf("invalid load address %q: %w", *binAddr, err)
		}
		addr = uint32(v)
	}

	img, err := loader.Load(binFile, overrideAddr, addr)
	if err != nil {
		return 1, err
	}
	if err := ram.WriteBytes(img.Addr, img.Data); err != nil {
		return 1, fmt.Errorf("loading %s: %w", binFile, err)
	}
	if *verbose {
		fmt.Printf("Read %d bytes from %s into RAM @ 0x%08x\n",
			len(img.Data), binFile, img.Addr)
	}

	// Populate the boot-time MMIO fields.
	if err := mmio.Setup(ram); err != nil {
		return 1, err
	}

	cfg := emu.Config{MaxCycles: *maxCycles}
	if *tracePath != "" {
		traceFile, err := os.Create(*tracePath)
		if err != nil {
			return 1, fmt.Errorf("unable to open the trace file: %w", err)
		}
		defer traceFile.Close()
		cfg.Trace = traceFile
	}

	cpu := emu.NewSimple(ram, cfg)

	if *verbose {
		fmt.Println(strings.Repeat("-", 72))
	}

	var exitCode uint32
	if *gfxEnabled {
		// Run the CPU in its own goroutine and present on the main
		// thread; closing the window terminates the core.
		done := make(chan struct{})
		go func() {
			defer close(done)
			code, rerr := cpu.Run()
			if rerr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", rerr)
				code = 1
			}
			exitCode = code
		}()

		front := gfx.New(ram, cpu, gfx.Config{
			Addr:    uint32(*gfxAddr),
			PalAddr: uint32(*gfxPalette),
			Width:   uint32(*gfxWidth),
			Height:  uint32(*gfxHeight),
			Depth:   uint32(*gfxDepth),
		})
		if gerr := front.Run(); gerr != nil {
			fmt.Fprintf(os.Stderr, "Graphics error: %v\n", gerr)
			cpu.Terminate()
		}
		<-done
	} else {
		code, rerr := cpu.Run()
		if rerr != nil {
			return 1, rerr
		}
		exitCode = code
	}

	if *verbose {
		fmt.Println(strings.Repeat("-", 72))
		fmt.Printf("Exit code: %d\n", int32(exitCode))
		cpu.DumpStats(os.Stdout)
	}

	if *dumpRange != "" {
		if err := dumpRAM(cpu, *dumpRange); err != nil {
			return 1, err
		}
	}

	return int(exitCode) & 0xff, nil
}

// dumpRAM parses a begin:end:file spec and writes the range.
func dumpRAM(cpu *emu.Simple, spec string) error {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return fmt.Errorf("invalid -dump-ram spec %q (want begin:end:file)", spec)
	}
	begin, err := strconv.ParseUint(parts[0], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid dump begin address %q: %w", parts[0], err)
	}
	end, err := strconv.ParseUint(parts[1], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid dump end address %q: %w", parts[1], err)
	}
	return cpu.DumpRAM(uint32(begin), uint32(end), parts[2])
}
