package runtime

import "sync"

// CatalogCache holds a backend's catalog. It is either empty or populated;
// once populated the same snapshot is returned forever. Failed enumerations
// leave it empty so a later call can retry.
type CatalogCache struct {
	catalog   *FunctionExports
	mu        sync.Mutex
	populated bool
}

// Get returns the cached catalog, calling enumerate only while the cache is empty.
func (c *CatalogCache) Get(enumerate func() (*FunctionExports, error)) (*FunctionExports, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.populated {
		return c.catalog, nil
	}

	catalog, err := enumerate()
	if err != nil {
		return nil, err
	}
	c.catalog = catalog
	c.populated = true
	return catalog, nil
}

// Populated reports whether the catalog has been enumerated.
func (c *CatalogCache) Populated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.populated
}
