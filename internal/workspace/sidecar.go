package workspace

import (
	"crypto/sha256"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"xcsc/internal/sourcemap"
	"xcsc/internal/transform"
)

// Current schema version - increment when Sidecar format changes.
const sidecarSchemaVersion uint16 = 2

// Sidecar is the persisted companion of a derived file: the source map plus
// the hashes that tell whether it still matches what is on disk.
type Sidecar struct {
	Schema      uint16
	Source      string
	SourceHash  [32]byte // hash of the source content the map was built from
	ContentHash [32]byte // hash of the derived content
	Maps        []sourcemap.Entry
}

func sidecarPath(derivedPath string) string {
	return derivedPath + ".map.mp"
}

func writeSidecar(derivedPath string, p *transform.Payload, sourceHash [32]byte) error {
	payload := Sidecar{
		Schema:      sidecarSchemaVersion,
		Source:      p.File,
		SourceHash:  sourceHash,
		ContentHash: sha256.Sum256([]byte(p.Content)),
		Maps:        p.SourceMaps,
	}
	data, err := msgpack.Marshal(&payload)
	if err != nil {
		return err
	}
	return writeAtomic(sidecarPath(derivedPath), data)
}

// LoadSidecar reads the sidecar next to a derived file and validates it
// against the derived content, which is returned so callers can reuse it
// without a second read. ok is false on any mismatch, including a schema
// bump.
func LoadSidecar(derivedPath string) (*Sidecar, []byte, bool) {
	data, err := os.ReadFile(sidecarPath(derivedPath))
	if err != nil {
		return nil, nil, false
	}
	var payload Sidecar
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, nil, false
	}
	if payload.Schema != sidecarSchemaVersion {
		return nil, nil, false
	}
	derived, err := os.ReadFile(derivedPath)
	if err != nil {
		return nil, nil, false
	}
	if sha256.Sum256(derived) != payload.ContentHash {
		return nil, nil, false
	}
	return &payload, derived, true
}
