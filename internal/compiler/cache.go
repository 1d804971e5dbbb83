package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/mytoken/internal/ir"
)

// DefaultCacheEntries bounds the number of parsed ABIs kept in memory.
const DefaultCacheEntries = 1024

// Cache holds compiled and validated ABIs keyed by the sha256 of their
// source bytes, so redeploying the same interface description before every
// test case compiles it once. Returned ABIs are shared and must not be
// modified.
type Cache struct {
	cache *ristretto.Cache[string, *ir.ABI]
	sfg   singleflight.Group
}

// NewCache creates a cache holding up to maxEntries ABIs.
func NewCache(maxEntries int64) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *ir.ABI]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		Cost: func(*ir.ABI) int64 {
			return 1
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create ABI cache: %w", err)
	}
	return &Cache{cache: c}, nil
}

// Load reads path and returns its compiled ABI, compiling and validating it
// on a miss. Validation failures are returned as ValidationErrors.
func (c *Cache) Load(path string) (*ir.ABI, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ABI: %w", err)
	}
	return c.Compile(path, src)
}

// Compile is Load for in-memory sources.
func (c *Cache) Compile(filename string, src []byte) (*ir.ABI, error) {
	sum := sha256.Sum256(src)
	key := hex.EncodeToString(sum[:])

	if abi, ok := c.cache.Get(key); ok {
		return abi, nil
	}

	v, err, _ := c.sfg.Do(key, func() (any, error) {
		abi, err := CompileABI(filename, src)
		if err != nil {
			return nil, err
		}
		if errs := ValidateABI(abi); len(errs) > 0 {
			return nil, ValidationErrors(errs)
		}
		c.cache.Set(key, abi, 0)
		c.cache.Wait()
		return abi, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ir.ABI), nil
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() {
	c.cache.Close()
}
