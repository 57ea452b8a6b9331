// Package vectorindex is a small document index: text is split into chunks,
// embedded, and stored in an HNSW graph for nearest-neighbour retrieval. An
// index persists to a single JSON file.
package vectorindex

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// DefaultChunkSize is the chunk budget in words.
const DefaultChunkSize = 1024

const (
	// Indexes up to this many nodes are queried by an exact scan; larger
	// ones go through the HNSW graph.
	exactScanLimit = 4096
	efSearch       = 64
)

// Embedder turns texts into vectors. Model names the embedding model so a
// saved index is never queried with a different one.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is one source text.
type Document struct {
	ID   string
	Text string
}

// Node is one embedded chunk of a document.
type Node struct {
	ID    string `json:"id"`
	DocID string `json:"doc_id"`
	Text  string `json:"text"`
}

// Match is a retrieved node with its cosine similarity to the query.
type Match struct {
	Node
	Score float32
}

// Index holds embedded nodes. It is safe for concurrent use.
type Index struct {
	embedModel string
	chunkSize  int

	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	nodes map[string]Node
	dims  int
}

// New returns an empty index bound to an embedding model.
func New(embedModel string, chunkSize int) *Index {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	g := hnsw.NewGraph[string]()
	g.EfSearch = efSearch
	return &Index{
		embedModel: embedModel,
		chunkSize:  chunkSize,
		graph:      g,
		nodes:      make(map[string]Node),
	}
}

// FromDocuments builds a new index from docs.
func FromDocuments(ctx context.Context, emb Embedder, docs []Document, chunkSize int) (*Index, error) {
	idx := New(emb.Model(), chunkSize)
	if err := idx.Insert(ctx, emb, docs...); err != nil {
		return nil, err
	}
	return idx, nil
}

// EmbedModel returns the embedding model the index was built with.
func (idx *Index) EmbedModel() string { return idx.embedModel }

// Len returns the number of nodes.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.nodes)
}

// Close satisfies registry.Handle; an index holds no external resources.
func (idx *Index) Close() error { return nil }

// Insert chunks, embeds and adds docs. Documents without an ID get one
// derived from their content.
func (idx *Index) Insert(ctx context.Context, emb Embedder, docs ...Document) error {
	if emb.Model() != idx.embedModel {
		return fmt.Errorf("vectorindex: embedder %q does not match index model %q", emb.Model(), idx.embedModel)
	}
	var pending []Node
	for _, d := range docs {
		if d.ID == "" {
			d.ID = contentID(d.Text)
		}
		for i, chunk := range Chunk(d.Text, idx.chunkSize) {
			pending = append(pending, Node{ID: fmt.Sprintf("%s#%d", d.ID, i), DocID: d.ID, Text: chunk})
		}
	}
	if len(pending) == 0 {
		return errors.New("vectorindex: nothing to index")
	}
	texts := make([]string, len(pending))
	for i, n := range pending {
		texts[i] = n.Text
	}
	vectors, err := emb.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(pending) {
		return fmt.Errorf("vectorindex: got %d embeddings for %d chunks", len(vectors), len(pending))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.addLocked(pending, vectors)
}

func (idx *Index) addLocked(nodes []Node, vectors [][]float32) error {
	graphNodes := make([]hnsw.Node[string], 0, len(nodes))
	dims := idx.dims
	for i, n := range nodes {
		v := vectors[i]
		if len(v) == 0 {
			return fmt.Errorf("vectorindex: empty embedding for node %s", n.ID)
		}
		if dims == 0 {
			dims = len(v)
		}
		if len(v) != dims {
			return fmt.Errorf("vectorindex: embedding dimension %d, index uses %d", len(v), dims)
		}
		if _, exists := idx.nodes[n.ID]; exists {
			return fmt.Errorf("vectorindex: duplicate node %s", n.ID)
		}
		graphNodes = append(graphNodes, hnsw.MakeNode(n.ID, v))
	}
	idx.graph.Add(graphNodes...)
	for _, n := range nodes {
		idx.nodes[n.ID] = n
	}
	idx.dims = dims
	return nil
}

// Query embeds q and returns up to k nodes, most similar first.
func (idx *Index) Query(ctx context.Context, emb Embedder, q string, k int) ([]Match, error) {
	if emb.Model() != idx.embedModel {
		return nil, fmt.Errorf("vectorindex: embedder %q does not match index model %q", emb.Model(), idx.embedModel)
	}
	vecs, err := emb.Embed(ctx, []string{q})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("vectorindex: got %d embeddings for query", len(vecs))
	}
	qv := vecs[0]

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if k <= 0 || len(idx.nodes) == 0 {
		return nil, nil
	}
	if len(qv) != idx.dims {
		return nil, fmt.Errorf("vectorindex: query dimension %d, index uses %d", len(qv), idx.dims)
	}
	var out []Match
	if len(idx.nodes) <= exactScanLimit {
		out = idx.scanLocked(qv)
	} else {
		out = idx.searchLocked(qv, k)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// scanLocked scores every node against qv.
func (idx *Index) scanLocked(qv []float32) []Match {
	out := make([]Match, 0, len(idx.nodes))
	for id, node := range idx.nodes {
		v, ok := idx.graph.Lookup(id)
		if !ok {
			continue
		}
		out = append(out, Match{Node: node, Score: cosine(qv, v)})
	}
	return out
}

func (idx *Index) searchLocked(qv []float32, k int) []Match {
	found := idx.graph.Search(qv, k)
	out := make([]Match, 0, len(found))
	for _, n := range found {
		node, ok := idx.nodes[n.Key]
		if !ok {
			continue
		}
		out = append(out, Match{Node: node, Score: cosine(qv, n.Value)})
	}
	return out
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func contentID(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h[:8])
}
