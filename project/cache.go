package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// The build cache lives beside the output container and records
// SHA-256 digests of the manifest, every input, and the produced
// output. When all digests still match, the build is skipped.
// Canonical encoding keeps the cache file deterministic.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("project: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type buildCache struct {
	Manifest string            `cbor:"manifest"`
	Inputs   map[string]string `cbor:"inputs"`
	Output   string            `cbor:"output"`
}

func cachePath(output string) string {
	return output + ".buildcache"
}

// snapshot digests the manifest, its inputs, and the output as they
// exist right now. A missing output digests to "".
func snapshot(m *Manifest) (*buildCache, error) {
	c := &buildCache{Inputs: make(map[string]string, len(m.Inputs))}
	var err error
	if c.Manifest, err = hashFile(m.Path); err != nil {
		return nil, err
	}
	for _, in := range m.Inputs {
		if c.Inputs[in.Path], err = hashFile(in.Path); err != nil {
			return nil, err
		}
	}
	if c.Output, err = hashFile(m.Project.Output); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		c.Output = ""
	}
	return c, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// loadCache reads a stored cache. Missing or corrupt files are a
// cache miss, never an error.
func loadCache(path string) (*buildCache, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var c buildCache
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, false
	}
	return &c, true
}

func writeCache(path string, c *buildCache) error {
	data, err := cborEncMode.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *buildCache) equal(other *buildCache) bool {
	if c.Manifest != other.Manifest || c.Output != other.Output {
		return false
	}
	if len(c.Inputs) != len(other.Inputs) {
		return false
	}
	for path, sum := range c.Inputs {
		if other.Inputs[path] != sum {
			return false
		}
	}
	return true
}
