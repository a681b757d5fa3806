// Package wasmtime runs modules on Wasmtime through its C API.
//
// Importing the package registers the "wasmtime" backend. It needs cgo;
// without it the package is empty.
//
// One Engine and one Store live as long as the backend; every invocation
// instantiates the compiled module into that store. Instances are not
// freed individually, so the store grows with each call until Close drops
// it. wasmtime-go frees native objects from finalizers.
package wasmtime
