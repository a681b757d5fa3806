// Package wasmtest encodes small core WebAssembly modules for tests.
package wasmtest

import (
	"os"
	"path/filepath"
	"testing"
)

// ValType is a core value type byte.
type ValType byte

const (
	I32       ValType = 0x7f
	I64       ValType = 0x7e
	F32       ValType = 0x7d
	F64       ValType = 0x7c
	V128      ValType = 0x7b
	FuncRef   ValType = 0x70
	ExternRef ValType = 0x6f
)

// Opcodes used by the fixtures.
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpEnd         byte = 0x0b
	OpCall        byte = 0x10
	OpDrop        byte = 0x1a
	OpLocalGet    byte = 0x20
	OpI32Const    byte = 0x41
	OpI64Const    byte = 0x42
	OpF32Const    byte = 0x43
	OpF64Const    byte = 0x44
	OpI32Add      byte = 0x6a
	OpI32Sub      byte = 0x6b
	OpI32Mul      byte = 0x6c
	OpI32DivS     byte = 0x6d
	OpI64Add      byte = 0x7c
	OpI64Mul      byte = 0x7e
	OpF32Add      byte = 0x92
	OpF32Mul      byte = 0x94
	OpF64Add      byte = 0xa0
	OpF64Mul      byte = 0xa2
)

const (
	magic   = "\x00asm"
	version = "\x01\x00\x00\x00"

	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionExport   = 7
	sectionStart    = 8
	sectionCode     = 10

	kindFunc   = 0x00
	kindMemory = 0x02
	kindGlobal = 0x03

	funcTypeByte = 0x60
)

// Func is a defined function. Body holds the instructions without the
// trailing end opcode. An empty Name leaves the function unexported.
type Func struct {
	Name    string
	Params  []ValType
	Results []ValType
	Body    []byte
}

// Import is an imported function.
type Import struct {
	Module  string
	Name    string
	Params  []ValType
	Results []ValType
}

// GlobalImport is an imported immutable global.
type GlobalImport struct {
	Module string
	Name   string
	Type   ValType
}

// Module is a minimal module: imported functions come first in the
// function index space, followed by Funcs.
type Module struct {
	Imports       []Import
	GlobalImports []GlobalImport
	Funcs         []Func
	// Memory declares one memory with the given minimum pages when set.
	Memory *uint32
	// MemoryExport exports the memory under this name.
	MemoryExport string
	// Start is the function index run at instantiation when set.
	Start *uint32
}

// Encode returns the binary form of m.
func (m *Module) Encode() []byte {
	out := []byte(magic + version)

	var types []byte
	types = appendU32(types, uint32(len(m.Imports)+len(m.Funcs)))
	for _, imp := range m.Imports {
		types = appendFuncType(types, imp.Params, imp.Results)
	}
	for _, f := range m.Funcs {
		types = appendFuncType(types, f.Params, f.Results)
	}
	out = appendSection(out, sectionType, types)

	if n := len(m.Imports) + len(m.GlobalImports); n > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(n))
		for i, imp := range m.Imports {
			sec = appendName(sec, imp.Module)
			sec = appendName(sec, imp.Name)
			sec = append(sec, kindFunc)
			sec = appendU32(sec, uint32(i))
		}
		for _, g := range m.GlobalImports {
			sec = appendName(sec, g.Module)
			sec = appendName(sec, g.Name)
			sec = append(sec, kindGlobal, byte(g.Type), 0x00)
		}
		out = appendSection(out, sectionImport, sec)
	}

	base := uint32(len(m.Imports))

	var funcs []byte
	funcs = appendU32(funcs, uint32(len(m.Funcs)))
	for i := range m.Funcs {
		funcs = appendU32(funcs, base+uint32(i))
	}
	out = appendSection(out, sectionFunction, funcs)

	if m.Memory != nil {
		var sec []byte
		sec = appendU32(sec, 1)
		sec = append(sec, 0x00)
		sec = appendU32(sec, *m.Memory)
		out = appendSection(out, sectionMemory, sec)
	}

	var exports []byte
	count := 0
	for i, f := range m.Funcs {
		if f.Name == "" {
			continue
		}
		exports = appendName(exports, f.Name)
		exports = append(exports, kindFunc)
		exports = appendU32(exports, base+uint32(i))
		count++
	}
	if m.Memory != nil && m.MemoryExport != "" {
		exports = appendName(exports, m.MemoryExport)
		exports = append(exports, kindMemory)
		exports = appendU32(exports, 0)
		count++
	}
	out = appendSection(out, sectionExport, append(appendU32(nil, uint32(count)), exports...))

	if m.Start != nil {
		out = appendSection(out, sectionStart, appendU32(nil, *m.Start))
	}

	var code []byte
	code = appendU32(code, uint32(len(m.Funcs)))
	for _, f := range m.Funcs {
		body := appendU32(nil, 0) // no locals
		body = append(body, f.Body...)
		body = append(body, OpEnd)
		code = appendU32(code, uint32(len(body)))
		code = append(code, body...)
	}
	out = appendSection(out, sectionCode, code)

	return out
}

// Write encodes m into dir/name and returns the file path.
func Write(t testing.TB, dir, name string, m *Module) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, m.Encode(), 0o600); err != nil {
		t.Fatalf("write module %s: %v", path, err)
	}
	return path
}

// WriteTemp encodes m into a fresh temporary directory.
func WriteTemp(t testing.TB, name string, m *Module) string {
	t.Helper()
	return Write(t, t.TempDir(), name, m)
}

func appendSection(out []byte, id byte, payload []byte) []byte {
	out = append(out, id)
	out = appendU32(out, uint32(len(payload)))
	return append(out, payload...)
}

func appendFuncType(out []byte, params, results []ValType) []byte {
	out = append(out, funcTypeByte)
	out = appendU32(out, uint32(len(params)))
	for _, p := range params {
		out = append(out, byte(p))
	}
	out = appendU32(out, uint32(len(results)))
	for _, r := range results {
		out = append(out, byte(r))
	}
	return out
}

func appendName(out []byte, name string) []byte {
	out = appendU32(out, uint32(len(name)))
	return append(out, name...)
}
