// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shader compiles WGSL sources to SPIR-V for pipeline setup.
//
// Each source file is parsed, lowered to naga IR, validated and translated
// once; the resulting program, with its entry points, is kept in an LRU
// cache. Compilation happens at pipeline-setup time, never per frame, and
// a failure aborts the setup that requested it.
package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// DefaultCacheSize is the number of compiled source files kept.
const DefaultCacheSize = 64

// Compiler errors.
var (
	// ErrEntryNotFound is returned when the source declares no shader
	// entry point with the requested name.
	ErrEntryNotFound = errors.New("shader: entry point not found")

	// ErrInvalidBytecode is returned when the compiler output is not a
	// whole number of SPIR-V words.
	ErrInvalidBytecode = errors.New("shader: invalid SPIR-V output")
)

// Stage is a shader pipeline stage.
type Stage string

// Shader stages.
const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
	StageCompute  Stage = "compute"
	StageTask     Stage = "task"
	StageMesh     Stage = "mesh"
)

func stageOf(s ir.ShaderStage) Stage {
	switch s {
	case ir.StageVertex:
		return StageVertex
	case ir.StageFragment:
		return StageFragment
	case ir.StageCompute:
		return StageCompute
	case ir.StageTask:
		return StageTask
	case ir.StageMesh:
		return StageMesh
	default:
		return Stage(fmt.Sprintf("stage(%d)", s))
	}
}

// Module is one entry point of a compiled source. SPIRV holds the whole
// translated file; pipelines select the entry by name.
type Module struct {
	Path  string
	Entry string
	Stage Stage
	SPIRV []uint32
}

// program is a compiled source file.
type program struct {
	stages map[string]Stage
	order  []string
	spirv  []uint32
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCacheSize sets how many compiled source files are kept.
func WithCacheSize(n int) Option {
	return func(c *Compiler) { c.cacheSize = n }
}

// Compiler compiles WGSL files read from a file system.
// It is safe for concurrent use.
type Compiler struct {
	fsys      fs.FS
	cacheSize int

	// lower and generate are the two halves of the naga pipeline.
	lower    func(src string) (*ir.Module, error)
	generate func(m *ir.Module) ([]byte, error)

	mu       sync.Mutex
	cache    *lru.Cache[string, *program]
	compiles int
}

// NewCompiler creates a compiler reading sources from fsys.
func NewCompiler(fsys fs.FS, opts ...Option) (*Compiler, error) {
	c := &Compiler{
		fsys:      fsys,
		cacheSize: DefaultCacheSize,
		lower:     lowerWGSL,
		generate:  generateSPIRV,
	}
	for _, opt := range opts {
		opt(c)
	}
	cache, err := lru.New[string, *program](c.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("shader: create cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

// lowerWGSL parses src and lowers it to validated naga IR.
func lowerWGSL(src string) (*ir.Module, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, err
	}
	mod, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}
	verrs, err := naga.Validate(mod)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validate: %w", &verrs[0])
	}
	return mod, nil
}

func generateSPIRV(mod *ir.Module) ([]byte, error) {
	return naga.GenerateSPIRV(mod, spirv.Options{Version: spirv.Version1_3})
}

// Compile returns the SPIR-V for entry point entryProfile of the WGSL file
// at sourcePath.
func (c *Compiler) Compile(sourcePath, entryProfile string) ([]uint32, error) {
	m, err := c.Module(sourcePath, entryProfile)
	if err != nil {
		return nil, err
	}
	return m.SPIRV, nil
}

// Module is like Compile but also reports the entry point's stage.
func (c *Compiler) Module(sourcePath, entry string) (*Module, error) {
	p, err := c.program(sourcePath)
	if err != nil {
		return nil, err
	}
	stage, ok := p.stages[entry]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s (has %v)", ErrEntryNotFound, entry, sourcePath, p.order)
	}
	return &Module{Path: sourcePath, Entry: entry, Stage: stage, SPIRV: p.spirv}, nil
}

// Entries returns the entry points declared by the file at sourcePath,
// in declaration order.
func (c *Compiler) Entries(sourcePath string) ([]string, error) {
	p, err := c.program(sourcePath)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), p.order...), nil
}

func (c *Compiler) program(path string) (*program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.cache.Get(path); ok {
		return p, nil
	}

	src, err := fs.ReadFile(c.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("shader: read %s: %w", path, err)
	}
	mod, err := c.lower(string(src))
	if err != nil {
		return nil, fmt.Errorf("shader: compile %s: %w", path, err)
	}
	p := &program{stages: make(map[string]Stage, len(mod.EntryPoints))}
	for _, ep := range mod.EntryPoints {
		p.stages[ep.Name] = stageOf(ep.Stage)
		p.order = append(p.order, ep.Name)
	}
	bytes, err := c.generate(mod)
	if err != nil {
		return nil, fmt.Errorf("shader: compile %s: %w", path, err)
	}
	if p.spirv, err = words(bytes); err != nil {
		return nil, fmt.Errorf("shader: %s: %w", path, err)
	}
	c.compiles++
	c.cache.Add(path, p)
	return p, nil
}

// Compiles returns how many source files have been compiled.
func (c *Compiler) Compiles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compiles
}

// Purge drops every cached program.
func (c *Compiler) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}

// words converts little-endian SPIR-V bytes to 32-bit words.
func words(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidBytecode, len(b))
	}
	code := make([]uint32, len(b)/4)
	for i := range code {
		code[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return code, nil
}
