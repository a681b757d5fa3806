package wasmtest

// Adder exports add(i32, i32) -> i32 and a memory, which the catalog ignores.
func Adder() *Module {
	pages := uint32(1)
	return &Module{
		Funcs: []Func{{
			Name:    "add",
			Params:  []ValType{I32, I32},
			Results: []ValType{I32},
			Body:    Body(LocalGet(0), LocalGet(1), Op(OpI32Add)),
		}},
		Memory:       &pages,
		MemoryExport: "memory",
	}
}

// Numeric exports one function per numeric kind plus a few edge cases:
//
//	add(i32, i32) -> i32
//	div(i32, i32) -> i32       traps on zero divisor
//	mul64(i64, i64) -> i64
//	addf32(f32, f32) -> f32
//	mulf64(f64, f64) -> f64
//	answer() -> i32            always 42
//	pair() -> (i32, i64)
//	nop()
//	crash()                    unreachable
//	simd(v128)                 not representable
//	ref(externref)             not representable
func Numeric() *Module {
	return &Module{
		Funcs: []Func{
			{Name: "add", Params: []ValType{I32, I32}, Results: []ValType{I32}, Body: Body(LocalGet(0), LocalGet(1), Op(OpI32Add))},
			{Name: "div", Params: []ValType{I32, I32}, Results: []ValType{I32}, Body: Body(LocalGet(0), LocalGet(1), Op(OpI32DivS))},
			{Name: "mul64", Params: []ValType{I64, I64}, Results: []ValType{I64}, Body: Body(LocalGet(0), LocalGet(1), Op(OpI64Mul))},
			{Name: "addf32", Params: []ValType{F32, F32}, Results: []ValType{F32}, Body: Body(LocalGet(0), LocalGet(1), Op(OpF32Add))},
			{Name: "mulf64", Params: []ValType{F64, F64}, Results: []ValType{F64}, Body: Body(LocalGet(0), LocalGet(1), Op(OpF64Mul))},
			{Name: "answer", Results: []ValType{I32}, Body: I32Const(42)},
			{Name: "pair", Results: []ValType{I32, I64}, Body: Body(I32Const(-1), I64Const(1<<40))},
			{Name: "nop"},
			{Name: "crash", Body: Op(OpUnreachable)},
			{Name: "simd", Params: []ValType{V128}},
			{Name: "ref", Params: []ValType{ExternRef}},
			{Params: []ValType{I32}, Body: Op(OpNop)},
		},
	}
}

// WASIExit imports proc_exit and exports exit(code i32) calling it. WASI
// hosts require an exported memory, so one is declared.
func WASIExit() *Module {
	pages := uint32(1)
	return &Module{
		Imports: []Import{{Module: "wasi_snapshot_preview1", Name: "proc_exit", Params: []ValType{I32}}},
		Funcs: []Func{{
			Name:   "exit",
			Params: []ValType{I32},
			Body:   Body(LocalGet(0), Call(0)),
		}},
		Memory:       &pages,
		MemoryExport: "memory",
	}
}

// StartTrap has a start function that traps, plus answer() -> i32.
func StartTrap() *Module {
	start := uint32(0)
	return &Module{
		Funcs: []Func{
			{Body: Op(OpUnreachable)},
			{Name: "answer", Results: []ValType{I32}, Body: I32Const(42)},
		},
		Start: &start,
	}
}

// UnresolvedGlobal imports env.base, a global no host provides, and
// exports answer() -> i32.
func UnresolvedGlobal() *Module {
	return &Module{
		GlobalImports: []GlobalImport{{Module: "env", Name: "base", Type: I32}},
		Funcs: []Func{
			{Name: "answer", Results: []ValType{I32}, Body: I32Const(42)},
		},
	}
}
