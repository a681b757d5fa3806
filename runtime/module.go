package runtime

import (
	"path/filepath"
)

// Module describes where a compiled module lives and which export runs
// when a command names none. It is read-only once handed to a backend.
type Module struct {
	// Path is the base directory of the module.
	Path string `yaml:"path" json:"path" validate:"required"`
	// Main is the file name of the compiled module inside Path.
	Main string `yaml:"main" json:"main" validate:"required"`
	// Entry is the default export, used only when a command names none.
	Entry string `yaml:"entry,omitempty" json:"entry,omitempty"`
}

// Location returns the file the backend loads.
func (m Module) Location() string {
	return filepath.Join(m.Path, m.Main)
}

// ModuleFromFile builds a descriptor for a single module file.
func ModuleFromFile(file, entry string) Module {
	return Module{
		Path:  filepath.Dir(file),
		Main:  filepath.Base(file),
		Entry: entry,
	}
}

// ModuleResolver turns a module reference from a command into a descriptor.
type ModuleResolver interface {
	Resolve(ref string) (Module, error)
}

// ResolverFunc adapts a function to ModuleResolver.
type ResolverFunc func(ref string) (Module, error)

func (f ResolverFunc) Resolve(ref string) (Module, error) {
	return f(ref)
}
