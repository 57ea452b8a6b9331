package vectorindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"completiond/internal/common/fsutil"
)

// fileVersion is bumped whenever the on-disk layout changes.
const fileVersion = 1

// ErrModelMismatch is returned by LoadFor when the file was built with a
// different embedding model.
var ErrModelMismatch = errors.New("vectorindex: embedding model mismatch")

type indexFile struct {
	Version    int         `json:"version"`
	EmbedModel string      `json:"embed_model"`
	ChunkSize  int         `json:"chunk_size"`
	Nodes      []fileEntry `json:"nodes"`
}

type fileEntry struct {
	Node
	Embedding []float32 `json:"embedding"`
}

// Save writes the index to path, replacing any previous file atomically.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	entries := make([]fileEntry, 0, len(idx.nodes))
	for id, n := range idx.nodes {
		vec, ok := idx.graph.Lookup(id)
		if !ok {
			continue
		}
		entries = append(entries, fileEntry{Node: n, Embedding: vec})
	}
	idx.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	data, err := json.Marshal(indexFile{
		Version:    fileVersion,
		EmbedModel: idx.embedModel,
		ChunkSize:  idx.chunkSize,
		Nodes:      entries,
	})
	if err != nil {
		return err
	}
	path, err = fsutil.ResolvePath(path)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o644)
}

// Load reads an index previously written by Save. A missing file yields an
// error matching os.ErrNotExist.
func Load(path string) (*Index, error) {
	path, err := fsutil.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if f.Version != fileVersion {
		return nil, fmt.Errorf("index %s: unsupported version %d", path, f.Version)
	}

	idx := New(f.EmbedModel, f.ChunkSize)
	nodes := make([]Node, len(f.Nodes))
	vectors := make([][]float32, len(f.Nodes))
	for i, e := range f.Nodes {
		nodes[i] = e.Node
		vectors[i] = e.Embedding
	}
	if len(nodes) > 0 {
		idx.mu.Lock()
		err = idx.addLocked(nodes, vectors)
		idx.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", path, err)
		}
	}
	return idx, nil
}

// LoadFor loads an index and checks it was built with embedModel.
func LoadFor(path, embedModel string) (*Index, error) {
	idx, err := Load(path)
	if err != nil {
		return nil, err
	}
	if idx.embedModel != embedModel {
		return nil, fmt.Errorf("%w: index %s built with %q, want %q", ErrModelMismatch, path, idx.embedModel, embedModel)
	}
	return idx, nil
}
