// Package emu provides functional MRISC32 emulation.
package emu

import (
	"os"
	"sync"
	"time"
)

// fileDescriptor is one open guest file descriptor.
type fileDescriptor struct {
	hostFile *os.File // Host file handle (nil for the standard streams).
	path     string
	isOpen   bool
}

// FDTable maps guest file descriptors to host files for the syscall
// routines. Descriptors 0-2 are the standard streams; new descriptors
// are allocated from 3.
type FDTable struct {
	fds    map[uint32]*fileDescriptor
	nextFD uint32
	mu     sync.Mutex
}

// NewFDTable creates a descriptor table with the standard streams
// initialized.
func NewFDTable() *FDTable {
	t := &FDTable{
		fds:    make(map[uint32]*fileDescriptor),
		nextFD: 3,
	}

	t.fds[0] = &fileDescriptor{path: "stdin", isOpen: true}
	t.fds[1] = &fileDescriptor{path: "stdout", isOpen: true}
	t.fds[2] = &fileDescriptor{path: "stderr", isOpen: true}

	return t
}

// Open opens a host file and returns a new guest descriptor.
func (t *FDTable) Open(path string, flags int, mode os.FileMode) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hostFile, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return 0, err
	}

	fd := t.nextFD
	t.nextFD++

	t.fds[fd] = &fileDescriptor{
		hostFile: hostFile,
		path:     path,
		isOpen:   true,
	}

	return fd, nil
}

// Close closes a guest descriptor. The standard streams are marked
// closed without touching the host.
func (t *FDTable) Close(fd uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.fds[fd]
	if !exists || !entry.isOpen {
		return os.ErrInvalid
	}

	if fd <= 2 {
		entry.isOpen = false
		return nil
	}

	if entry.hostFile != nil {
		if err := entry.hostFile.Close(); err != nil {
			return err
		}
	}

	entry.hostFile = nil
	entry.isOpen = false
	return nil
}

func (t *FDTable) lookup(fd uint32) (*os.File, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.fds[fd]
	if !exists || !entry.isOpen {
		return nil, false
	}
	return entry.hostFile, true
}

// Read reads from a guest descriptor. The standard streams are handled
// by the syscall handler directly.
func (t *FDTable) Read(fd uint32, buf []byte) (int, error) {
	hostFile, ok := t.lookup(fd)
	if !ok || hostFile == nil {
		return 0, os.ErrInvalid
	}
	return hostFile.Read(buf)
}

// Write writes to a guest descriptor. The standard streams are handled
// by the syscall handler directly.
func (t *FDTable) Write(fd uint32, buf []byte) (int, error) {
	hostFile, ok := t.lookup(fd)
	if !ok || hostFile == nil {
		return 0, os.ErrInvalid
	}
	return hostFile.Write(buf)
}

// Seek sets the file position of a guest descriptor.
func (t *FDTable) Seek(fd uint32, offset int64, whence int) (int64, error) {
	hostFile, ok := t.lookup(fd)
	if !ok || hostFile == nil {
		return 0, os.ErrInvalid
	}
	return hostFile.Seek(offset, whence)
}

// Stat returns file information for a guest descriptor. The standard
// streams report as character devices.
func (t *FDTable) Stat(fd uint32) (os.FileInfo, error) {
	t.mu.Lock()
	entry, exists := t.fds[fd]
	if !exists || !entry.isOpen {
		t.mu.Unlock()
		return nil, os.ErrInvalid
	}
	hostFile := entry.hostFile
	path := entry.path
	t.mu.Unlock()

	if fd <= 2 {
		return &stdioFileInfo{name: path}, nil
	}
	if hostFile == nil {
		return nil, os.ErrInvalid
	}
	return hostFile.Stat()
}

// stdioFileInfo is a stub FileInfo for the standard streams.
type stdioFileInfo struct {
	name string
}

func (f *stdioFileInfo) Name() string       { return f.name }
func (f *stdioFileInfo) Size() int64        { return 0 }
func (f *stdioFileInfo) Mode() os.FileMode  { return os.ModeCharDevice | 0666 }
func (f *stdioFileInfo) ModTime() time.Time { return time.Time{} }
func (f *stdioFileInfo) IsDir() bool        { return false }
func (f *stdioFileInfo) Sys() interface{}   { return nil }
