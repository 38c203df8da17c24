package emu_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mrisc32-sim/mr32sim/emu"
)

var _ = Describe("DefaultSyscallHandler", func() {
	var (
		ram     *emu.RAM
		regs    *emu.RegFile
		handler *emu.DefaultSyscallHandler
		stdin   *bytes.Buffer
		stdout  *bytes.Buffer
		stderr  *bytes.Buffer
	)

	BeforeEach(func() {
		ram = emu.NewRAM(0x10000)
		regs = &emu.RegFile{}
		stdin = &bytes.Buffer{}
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		handler = emu.NewDefaultSyscallHandler(ram, stdin, stdout, stderr)
	})

	// putPath writes a NUL-terminated guest string.
	putPath := func(addr uint32, path string) {
		Expect(ram.WriteBytes(addr, append([]byte(path), 0))).To(Succeed())
	}

	Describe("EXIT", func() {
		It("should record the exit code and terminate", func() {
			regs.R[1] = 42

			Expect(handler.Call(emu.RoutineExit, regs)).To(Succeed())

			Expect(handler.Terminated()).To(BeTrue())
			Expect(handler.ExitCode()).To(Equal(uint32(42)))
		})

		It("should reset on Clear", func() {
			regs.R[1] = 42
			Expect(handler.Call(emu.RoutineExit, regs)).To(Succeed())

			handler.Clear()

			Expect(handler.Terminated()).To(BeFalse())
			Expect(handler.ExitCode()).To(Equal(uint32(0)))
		})
	})

	Describe("PUTCHAR and GETCHAR", func() {
		It("should write one byte to stdout and echo it back", func() {
			regs.R[1] = 'A'

			Expect(handler.Call(emu.RoutinePutchar, regs)).To(Succeed())

			Expect(stdout.String()).To(Equal("A"))
			Expect(regs.R[1]).To(Equal(uint32('A')))
		})

		It("should read one byte from stdin", func() {
			stdin.WriteString("x")

			Expect(handler.Call(emu.RoutineGetchar, regs)).To(Succeed())

			Expect(regs.R[1]).To(Equal(uint32('x')))
		})

		It("should return -1 on stdin EOF", func() {
			Expect(handler.Call(emu.RoutineGetchar, regs)).To(Succeed())

			Expect(regs.R[1]).To(Equal(uint32(0xffffffff)))
		})
	})

	Describe("WRITE", func() {
		It("should copy guest bytes to stdout for fd 1", func() {
			Expect(ram.WriteBytes(0x1000, []byte("hello"))).To(Succeed())
			regs.R[1] = 1
			regs.R[2] = 0x1000
			regs.R[3] = 5

			Expect(handler.Call(emu.RoutineWrite, regs)).To(Succeed())

			Expect(stdout.String()).To(Equal("hello"))
			Expect(regs.R[1]).To(Equal(uint32(5)))
		})

		It("should route fd 2 to stderr", func() {
			Expect(ram.WriteBytes(0x1000, []byte("oops"))).To(Succeed())
			regs.R[1] = 2
			regs.R[2] = 0x1000
			regs.R[3] = 4

			Expect(handler.Call(emu.RoutineWrite, regs)).To(Succeed())

			Expect(stderr.String()).To(Equal("oops"))
		})

		It("should reject buffers outside RAM", func() {
			regs.R[1] = 1
			regs.R[2] = 0xfff0
			regs.R[3] = 0x100

			Expect(handler.Call(emu.RoutineWrite, regs)).To(Succeed())

			Expect(regs.R[1]).To(Equal(uint32(0xffffffff)))
			Expect(stdout.Len()).To(Equal(0))
		})
	})

	Describe("READ", func() {
		It("should copy stdin bytes into guest RAM for fd 0", func() {
			stdin.WriteString("input")
			regs.R[1] = 0
			regs.R[2] = 0x2000
			regs.R[3] = 5

			Expect(handler.Call(emu.RoutineRead, regs)).To(Succeed())

			Expect(regs.R[1]).To(Equal(uint32(5)))
			data, err := ram.ReadBytes(0x2000, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("input"))
		})

		It("should reject buffers outside RAM", func() {
			regs.R[1] = 0
			regs.R[2] = 0xffff
			regs.R[3] = 16

			Expect(handler.Call(emu.RoutineRead, regs)).To(Succeed())

			Expect(regs.R[1]).To(Equal(uint32(0xffffffff)))
		})
	})

	Describe("File routines", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should open, write, seek, read and close a host file", func() {
			path := filepath.Join(dir, "out.txt")
			putPath(0x100, path)

			// open(path, O_RDWR|O_CREAT, 0644)
			regs.R[1] = 0x100
			regs.R[2] = 0x0202
			regs.R[3] = 0644
			Expect(handler.Call(emu.RoutineOpen, regs)).To(Succeed())
			fd := regs.R[1]
			Expect(fd).To(BeNumerically(">=", 3))

			// write(fd, "data", 4)
			Expect(ram.WriteBytes(0x1000, []byte("data"))).To(Succeed())
			regs.R[1] = fd
			regs.R[2] = 0x1000
			regs.R[3] = 4
			Expect(handler.Call(emu.RoutineWrite, regs)).To(Succeed())
			Expect(regs.R[1]).To(Equal(uint32(4)))

			// lseek(fd, 0, SEEK_SET)
			regs.R[1] = fd
			regs.R[2] = 0
			regs.R[3] = 0
			Expect(handler.Call(emu.RoutineLseek, regs)).To(Succeed())
			Expect(regs.R[1]).To(Equal(uint32(0)))

			// read(fd, buf, 4)
			regs.R[1] = fd
			regs.R[2] = 0x2000
			regs.R[3] = 4
			Expect(handler.Call(emu.RoutineRead, regs)).To(Succeed())
			Expect(regs.R[1]).To(Equal(uint32(4)))
			data, err := ram.ReadBytes(0x2000, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("data"))

			// close(fd)
			regs.R[1] = fd
			Expect(handler.Call(emu.RoutineClose, regs)).To(Succeed())
			Expect(regs.R[1]).To(Equal(uint32(0)))
		})

		It("should return -1 when opening a missing file", func() {
			putPath(0x100, filepath.Join(dir, "missing"))
			regs.R[1] = 0x100
			regs.R[2] = 0 // O_RDONLY
			regs.R[3] = 0

			Expect(handler.Call(emu.RoutineOpen, regs)).To(Succeed())

			Expect(regs.R[1]).To(Equal(uint32(0xffffffff)))
		})

		It("should serialize stat results into the 72-byte guest layout", func() {
			path := filepath.Join(dir, "stat.txt")
			Expect(os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0644)).To(Succeed())
			putPath(0x100, path)

			regs.R[1] = 0x100
			regs.R[2] = 0x3000
			Expect(handler.Call(emu.RoutineStat, regs)).To(Succeed())
			Expect(regs.R[1]).To(Equal(uint32(0)))

			size, err := ram.Load32(0x3000 + 16)
			Expect(err).NotTo(HaveOccurred())
			Expect(size).To(Equal(uint32(100)))

			mode, err := ram.Load32(0x3000 + 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(mode & 0x8000).NotTo(BeZero()) // Regular file.
		})

		It("should create directories via MKDIR", func() {
			path := filepath.Join(dir, "sub")
			putPath(0x100, path)
			regs.R[1] = 0x100
			regs.R[2] = 0755

			Expect(handler.Call(emu.RoutineMkdir, regs)).To(Succeed())

			Expect(regs.R[1]).To(Equal(uint32(0)))
			fi, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(fi.IsDir()).To(BeTrue())
		})

		It("should remove files via UNLINK", func() {
			path := filepath.Join(dir, "gone.txt")
			Expect(os.WriteFile(path, []byte("x"), 0644)).To(Succeed())
			putPath(0x100, path)
			regs.R[1] = 0x100

			Expect(handler.Call(emu.RoutineUnlink, regs)).To(Succeed())

			Expect(regs.R[1]).To(Equal(uint32(0)))
			_, err := os.Stat(path)
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Describe("CLOSE on standard streams", func() {
		It("should succeed without touching the host", func() {
			for fd := uint32(0); fd <= 2; fd++ {
				regs.R[1] = fd
				Expect(handler.Call(emu.RoutineClose, regs)).To(Succeed())
				Expect(regs.R[1]).To(Equal(uint32(0)))
			}
		})
	})

	Describe("ISATTY", func() {
		It("should report 0 for a non-terminal descriptor", func() {
			regs.R[1] = 5

			Expect(handler.Call(emu.RoutineIsatty, regs)).To(Succeed())

			Expect(regs.R[1]).To(Equal(uint32(0)))
		})
	})

	Describe("GETTIMEMICROS", func() {
		It("should return a plausible split microsecond count", func() {
			Expect(handler.Call(emu.RoutineGettimemicros, regs)).To(Succeed())

			micros := uint64(regs.R[2])<<32 | uint64(regs.R[1])
			// After 2020-01-01 in microseconds.
			Expect(micros).To(BeNumerically(">", uint64(1577836800000000)))
		})
	})

	Describe("Invalid routines", func() {
		It("should fault on unknown routine numbers", func() {
			err := handler.Call(99, regs)

			Expect(err).To(HaveOccurred())
			Expect(err).To(BeAssignableToTypeOf(&emu.SyscallError{}))
		})
	})
})
