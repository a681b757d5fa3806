package runtime

import (
	"strings"

	"github.com/wasmship/wasmship/value"
)

// FunctionExport is the signature of one callable export.
type FunctionExport struct {
	Params  []value.ValueType `json:"params"`
	Results []value.ValueType `json:"results"`
}

// String renders the signature as "(i32, i32) -> (i32)".
func (f FunctionExport) String() string {
	return "(" + joinTypes(f.Params) + ") -> (" + joinTypes(f.Results) + ")"
}

func joinTypes(types []value.ValueType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// FunctionExports is the export catalog of one loaded module: function
// exports keyed by name. It is immutable once built.
type FunctionExports struct {
	exports map[string]FunctionExport
	skipped map[string]error
	names   []string
}

// Lookup returns the signature of the named export.
func (c *FunctionExports) Lookup(name string) (FunctionExport, bool) {
	f, ok := c.exports[name]
	return f, ok
}

func (c *FunctionExports) IsEmpty() bool {
	return len(c.names) == 0
}

func (c *FunctionExports) Len() int {
	return len(c.names)
}

// Names returns export names in enumeration order. The order carries no meaning.
func (c *FunctionExports) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Skipped returns exports left out of the catalog because a parameter or
// result type has no value representation, with the reason.
func (c *FunctionExports) Skipped() map[string]error {
	out := make(map[string]error, len(c.skipped))
	for k, v := range c.skipped {
		out[k] = v
	}
	return out
}

// skippedErr returns the recorded error for an export left out of the catalog.
func (c *FunctionExports) skippedErr(name string) error {
	return c.skipped[name]
}

// CatalogBuilder collects exports during enumeration. Engines use it to
// produce a FunctionExports.
type CatalogBuilder struct {
	exports map[string]FunctionExport
	skipped map[string]error
	names   []string
}

func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{
		exports: make(map[string]FunctionExport),
		skipped: make(map[string]error),
	}
}

// Add records a function export. A repeated name replaces the earlier entry.
func (b *CatalogBuilder) Add(name string, params, results []value.ValueType) *CatalogBuilder {
	if _, ok := b.exports[name]; !ok {
		b.names = append(b.names, name)
	}
	b.exports[name] = FunctionExport{
		Params:  append([]value.ValueType(nil), params...),
		Results: append([]value.ValueType(nil), results...),
	}
	return b
}

// Skip records an export that cannot be invoked.
func (b *CatalogBuilder) Skip(name string, err error) *CatalogBuilder {
	b.skipped[name] = err
	return b
}

// Build returns the immutable catalog. The builder must not be reused.
func (b *CatalogBuilder) Build() *FunctionExports {
	return &FunctionExports{
		exports: b.exports,
		skipped: b.skipped,
		names:   b.names,
	}
}
