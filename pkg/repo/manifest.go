package repo

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// ManifestEntry is one asset's record in a repository manifest. A file may
// appear under several revisions; the entry with the highest V is the
// authoritative one.
type ManifestEntry struct {
	FileName string `json:"fileName"`
	FileHash string `json:"fileHash"`
	V        int    `json:"v"`
}

// Manifest maps asset file names to their authoritative entry.
type Manifest map[string]ManifestEntry

// CollapseManifest reduces raw manifest entries to one entry per file,
// keeping the highest revision.
func CollapseManifest(entries []ManifestEntry) Manifest {
	m := make(Manifest, len(entries))
	for _, e := range entries {
		if e.FileName == "" {
			continue
		}
		if cur, ok := m[e.FileName]; !ok || e.V > cur.V {
			m[e.FileName] = e
		}
	}
	return m
}

// Hash returns the content hash recorded for name.
func (m Manifest) Hash(name string) (string, bool) {
	e, ok := m[name]
	if !ok {
		return "", false
	}
	return e.FileHash, true
}

// HashBytes returns the content hash asset manifests record for data:
// lowercase hex SHA-256. Sources and destinations must agree on this to
// make hash comparison meaningful.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Entries returns the manifest in wire form, sorted by file name.
func (m Manifest) Entries() []ManifestEntry {
	out := make([]ManifestEntry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out
}
