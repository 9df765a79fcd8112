// Copyright 2020 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package driverfs declares the filesystem surface the scheduler and its
// collaborators need (stat for mtimes, read for artifacts and config
// files), so tests can substitute an in-memory filesystem instead of
// touching disk. The scheduler's mtime checks on inputs and external
// dependencies, its reads of per-file artifacts, and the driver's check for
// a persisted graph go through this interface; the compiler subprocess and
// the output-file map reader use the real filesystem directly. Per spec.md
// §5 these resources are read-only to the engine.
package driverfs

import (
	"io/fs"
	"os"
	"time"
)

// FS is the subset of filesystem operations the driver needs.
type FS interface {
	// ModTime returns path's modification time.
	ModTime(path string) (time.Time, error)
	// ReadFile returns path's full contents.
	ReadFile(path string) ([]byte, error)
	// Exists reports whether path exists.
	Exists(path string) bool
}

// OS is the default, real-disk implementation of FS.
type OS struct{}

var _ FS = OS{}

// ModTime implements FS.
func (OS) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// ReadFile implements FS.
func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists implements FS.
func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Memory is an in-memory FS, for tests.
type Memory struct {
	Files map[string]MemoryFile
}

// MemoryFile is one file's recorded content and mtime in a Memory FS.
type MemoryFile struct {
	Content []byte
	ModTime time.Time
}

var _ FS = (*Memory)(nil)

// NewMemory returns an empty Memory FS.
func NewMemory() *Memory {
	return &Memory{Files: make(map[string]MemoryFile)}
}

// Put records a file's content and modification time.
func (m *Memory) Put(path string, content []byte, modTime time.Time) {
	m.Files[path] = MemoryFile{Content: content, ModTime: modTime}
}

// ModTime implements FS.
func (m *Memory) ModTime(path string) (time.Time, error) {
	f, ok := m.Files[path]
	if !ok {
		return time.Time{}, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return f.ModTime, nil
}

// ReadFile implements FS.
func (m *Memory) ReadFile(path string) ([]byte, error) {
	f, ok := m.Files[path]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return f.Content, nil
}

// Exists implements FS.
func (m *Memory) Exists(path string) bool {
	_, ok := m.Files[path]
	return ok
}
