// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native holds shader compilation helpers shared by the pipeline
// builder and the hal backend.
package native

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

// CompileShaderToSPIRV compiles WGSL source to SPIR-V words.
func CompileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("failed to compile shader: SPIR-V length %d is not word aligned", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return spirvCode, nil
}

// CompileFunc compiles WGSL to SPIR-V.
type CompileFunc func(wgsl string) ([]uint32, error)

// ShaderCache memoizes compilation by source content.
// It is safe for concurrent use.
type ShaderCache struct {
	compile CompileFunc

	mu      sync.Mutex
	entries map[[sha256.Size]byte][]uint32
	misses  int
}

// NewShaderCache creates a cache around compile, or CompileShaderToSPIRV
// when compile is nil.
func NewShaderCache(compile CompileFunc) *ShaderCache {
	if compile == nil {
		compile = CompileShaderToSPIRV
	}
	return &ShaderCache{
		compile: compile,
		entries: make(map[[sha256.Size]byte][]uint32),
	}
}

// Compile returns the SPIR-V for source, compiling it on first use.
// Failed compilations are not cached.
func (c *ShaderCache) Compile(source string) ([]uint32, error) {
	key := sha256.Sum256([]byte(source))

	c.mu.Lock()
	if code, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return code, nil
	}
	c.mu.Unlock()

	code, err := c.compile(source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = code
	c.misses++
	c.mu.Unlock()
	return code, nil
}

// Compilations returns how many sources were compiled successfully.
func (c *ShaderCache) Compilations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}
