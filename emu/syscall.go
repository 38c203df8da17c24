// Package emu provides functional MRISC32 emulation.
package emu

import (
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// Simulator routine numbers. The guest reaches routine N by jumping to
// SyscallBase + 4*N; R1..R3 carry the arguments and R1 (and R2 for
// 64-bit results) the return value.
const (
	RoutineExit          = 0
	RoutinePutchar       = 1
	RoutineGetchar       = 2
	RoutineClose         = 3
	RoutineFstat         = 4
	RoutineIsatty        = 5
	RoutineLink          = 6
	RoutineLseek         = 7
	RoutineMkdir         = 8
	RoutineOpen          = 9
	RoutineRead          = 10
	RoutineStat          = 11
	RoutineUnlink        = 12
	RoutineWrite         = 13
	RoutineGettimemicros = 14

	routineLast = 15
)

// SyscallHandler marshals guest register state to host services.
type SyscallHandler interface {
	// Clear resets the termination state before a run.
	Clear()

	// Call executes one simulator routine against the register file.
	// Host-level failures are reported to the guest through R1. Invalid
	// routine numbers and guest memory faults (path strings, stat
	// buffers, I/O buffer copies) are returned as errors.
	Call(routineNo uint32, regs *RegFile) error

	// Terminated reports whether a call requested termination.
	Terminated() bool

	// ExitCode returns the recorded exit code.
	ExitCode() uint32
}

// DefaultSyscallHandler implements the simulator routines against the
// host OS: stdio through the configured reader/writers, files through
// an FDTable.
type DefaultSyscallHandler struct {
	ram    *RAM
	fds    *FDTable
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	terminated bool
	exitCode   uint32
}

// NewDefaultSyscallHandler creates a host service adapter bound to the
// guest RAM and the given standard streams.
func NewDefaultSyscallHandler(ram *RAM, stdin io.Reader, stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		ram:    ram,
		fds:    NewFDTable(),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

// Clear resets the termination state.
func (h *DefaultSyscallHandler) Clear() {
	h.terminated = false
	h.exitCode = 0
}

// Terminated reports whether a call requested termination.
func (h *DefaultSyscallHandler) Terminated() bool {
	return h.terminated
}

// ExitCode returns the recorded exit code.
func (h *DefaultSyscallHandler) ExitCode() uint32 {
	return h.exitCode
}

const rcError = 0xffffffff // -1 as an unsigned word.

// Call executes one simulator routine.
func (h *DefaultSyscallHandler) Call(routineNo uint32, regs *RegFile) error {
	if routineNo >= routineLast {
		return &SyscallError{Routine: routineNo, Reason: "unknown routine"}
	}

	switch routineNo {
	case RoutineExit:
		h.terminated = true
		h.exitCode = regs.R[1]

	case RoutinePutchar:
		ch := byte(regs.R[1])
		if _, err := h.stdout.Write([]byte{ch}); err != nil {
			regs.R[1] = rcError
		} else {
			regs.R[1] = uint32(ch)
		}

	case RoutineGetchar:
		var buf [1]byte
		if n, err := h.stdin.Read(buf[:]); err != nil || n == 0 {
			regs.R[1] = rcError // EOF
		} else {
			regs.R[1] = uint32(buf[0])
		}

	case RoutineClose:
		fd := regs.R[1]
		if fd <= 2 {
			// Keep the simulator's own standard streams open.
			regs.R[1] = 0
		} else if err := h.fds.Close(fd); err != nil {
			regs.R[1] = rcError
		} else {
			regs.R[1] = 0
		}

	case RoutineFstat:
		fi, err := h.fds.Stat(regs.R[1])
		if err != nil {
			regs.R[1] = rcError
			break
		}
		if err := h.statToRAM(fi, regs.R[2]); err != nil {
			return err
		}
		regs.R[1] = 0

	case RoutineIsatty:
		regs.R[1] = h.isatty(regs.R[1])

	case RoutineLink:
		oldPath, err := h.pathFromRAM(regs.R[1])
		if err != nil {
			return err
		}
		newPath, err := h.pathFromRAM(regs.R[2])
		if err != nil {
			return err
		}
		if os.Link(oldPath, newPath) != nil {
			regs.R[1] = rcError
		} else {
			regs.R[1] = 0
		}

	case RoutineLseek:
		pos, err := h.fds.Seek(regs.R[1], int64(int32(regs.R[2])), int(regs.R[3]))
		if err != nil {
			regs.R[1] = rcError
		} else {
			regs.R[1] = uint32(pos)
		}

	case RoutineMkdir:
		path, err := h.pathFromRAM(regs.R[1])
		if err != nil {
			return err
		}
		if os.Mkdir(path, os.FileMode(regs.R[2]&0777)) != nil {
			regs.R[1] = rcError
		} else {
			regs.R[1] = 0
		}

	case RoutineOpen:
		path, err := h.pathFromRAM(regs.R[1])
		if err != nil {
			return err
		}
		flags := openFlagsToHost(regs.R[2])
		fd, oerr := h.fds.Open(path, flags, os.FileMode(regs.R[3]&0777))
		if oerr != nil {
			regs.R[1] = rcError
		} else {
			regs.R[1] = fd
		}

	case RoutineRead:
		bufPtr := regs.R[2]
		count := regs.R[3]
		if !h.ram.ValidRange(bufPtr, count) {
			regs.R[1] = rcError
			break
		}
		buf := make([]byte, count)
		var n int
		var rerr error
		if regs.R[1] == 0 {
			if h.stdin != nil {
				n, rerr = h.stdin.Read(buf)
			}
		} else {
			n, rerr = h.fds.Read(regs.R[1], buf)
		}
		if rerr != nil && n == 0 && rerr != io.EOF {
			regs.R[1] = rcError
			break
		}
		if err := h.ram.WriteBytes(bufPtr, buf[:n]); err != nil {
			return err
		}
		regs.R[1] = uint32(n)

	case RoutineStat:
		path, err := h.pathFromRAM(regs.R[1])
		if err != nil {
			return err
		}
		fi, serr := os.Stat(path)
		if serr != nil {
			regs.R[1] = rcError
			break
		}
		if err := h.statToRAM(fi, regs.R[2]); err != nil {
			return err
		}
		regs.R[1] = 0

	case RoutineUnlink:
		path, err := h.pathFromRAM(regs.R[1])
		if err != nil {
			return err
		}
		if os.Remove(path) != nil {
			regs.R[1] = rcError
		} else {
			regs.R[1] = 0
		}

	case RoutineWrite:
		bufPtr := regs.R[2]
		count := regs.R[3]
		if !h.ram.ValidRange(bufPtr, count) {
			regs.R[1] = rcError
			break
		}
		buf, err := h.ram.ReadBytes(bufPtr, count)
		if err != nil {
			return err
		}
		var n int
		var werr error
		switch regs.R[1] {
		case 1:
			n, werr = h.stdout.Write(buf)
		case 2:
			n, werr = h.stderr.Write(buf)
		default:
			n, werr = h.fds.Write(regs.R[1], buf)
		}
		if werr != nil && n == 0 {
			regs.R[1] = rcError
		} else {
			regs.R[1] = uint32(n)
		}

	case RoutineGettimemicros:
		micros := uint64(time.Now().UnixMicro())
		regs.R[1] = uint32(micros)
		regs.R[2] = uint32(micros >> 32)
	}

	return nil
}

// isatty answers the ISATTY routine. Only the standard streams can be
// terminals; descriptors from the FD table are regular files.
func (h *DefaultSyscallHandler) isatty(fd uint32) uint32 {
	var f *os.File
	switch fd {
	case 0:
		if h.stdin == os.Stdin {
			f = os.Stdin
		}
	case 1:
		if h.stdout == os.Stdout {
			f = os.Stdout
		}
	case 2:
		if h.stderr == os.Stderr {
			f = os.Stderr
		}
	}
	if f != nil && term.IsTerminal(int(f.Fd())) {
		return 1
	}
	return 0
}

// pathFromRAM reads a NUL-terminated guest string.
func (h *DefaultSyscallHandler) pathFromRAM(addr uint32) (string, error) {
	var path []byte
	for {
		c, err := h.ram.Load8(addr)
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(path), nil
		}
		path = append(path, byte(c))
		addr++
	}
}

// Newlib open(2) flag bits used by the guest toolchain.
const (
	guestOAccMode = 0x0003
	guestOWronly  = 0x0001
	guestORdwr    = 0x0002
	guestOAppend  = 0x0008
	guestOCreat   = 0x0200
	guestOTrunc   = 0x0400
)

// openFlagsToHost translates the guest flag bit-field to os.OpenFile
// flags.
func openFlagsToHost(flags uint32) int {
	var result int
	switch flags & guestOAccMode {
	case guestOWronly:
		result = os.O_WRONLY
	case guestORdwr:
		result = os.O_RDWR
	default:
		result = os.O_RDONLY
	}
	if flags&guestOAppend != 0 {
		result |= os.O_APPEND
	}
	if flags&guestOCreat != 0 {
		result |= os.O_CREATE
	}
	if flags&guestOTrunc != 0 {
		result |= os.O_TRUNC
	}
	return result
}

// Newlib st_mode file type bits.
const (
	guestIFDIR = 0x4000
	guestIFCHR = 0x2000
	guestIFREG = 0x8000
)

// statToRAM serializes host file info into the guest's 72-byte stat
// layout:
//
//	dev@0 ino@2 mode@4 nlink@8 uid@10 gid@12 rdev@14 size@16
//	atim@20 mtim@32 ctim@44 blksize@56 blocks@60 spare@64
//
// Identity fields the host API does not expose portably (dev, ino,
// uid, gid, rdev) are written as zero.
func (h *DefaultSyscallHandler) statToRAM(fi os.FileInfo, addr uint32) error {
	mode := uint32(fi.Mode().Perm())
	switch {
	case fi.IsDir():
		mode |= guestIFDIR
	case fi.Mode()&os.ModeCharDevice != 0:
		mode |= guestIFCHR
	case fi.Mode().IsRegular():
		mode |= guestIFREG
	}

	size := uint32(fi.Size())
	mtime := fi.ModTime()
	sec := uint64(mtime.Unix())
	nsec := uint32(mtime.Nanosecond())

	type store struct {
		addr  uint32
		value uint32
		half  bool
	}
	stores := []store{
		{addr + 0, 0, true},     // st_dev
		{addr + 2, 0, true},     // st_ino
		{addr + 4, mode, false}, // st_mode
		{addr + 8, 1, true},     // st_nlink
		{addr + 10, 0, true},    // st_uid
		{addr + 12, 0, true},    // st_gid
		{addr + 14, 0, true},    // st_rdev
		{addr + 16, size, false},
		{addr + 20, uint32(sec), false}, // st_atim
		{addr + 24, uint32(sec >> 32), false},
		{addr + 28, nsec, false},
		{addr + 32, uint32(sec), false}, // st_mtim
		{addr + 36, uint32(sec >> 32), false},
		{addr + 40, nsec, false},
		{addr + 44, uint32(sec), false}, // st_ctim
		{addr + 48, uint32(sec >> 32), false},
		{addr + 52, nsec, false},
		{addr + 56, 512, false}, // st_blksize
		{addr + 60, (size + 511) / 512, false},
	}
	for _, s := range stores {
		var err error
		if s.half {
			err = h.ram.Store16(s.addr, s.value)
		} else {
			err = h.ram.Store32(s.addr, s.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
