//go:build cgo

package main

import (
	_ "github.com/wasmship/wasmship/engine/wasmtime"
)
