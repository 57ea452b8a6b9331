package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// letterEmbedder maps text to letter frequencies plus a constant bias so no
// vector is ever zero.
type letterEmbedder struct {
	model string
	calls atomic.Int32
	err   error
}

func (e *letterEmbedder) Model() string {
	if e.model == "" {
		return "letters"
	}
	return e.model
}

func (e *letterEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, 27)
		v[26] = 0.1
		for _, r := range strings.ToLower(t) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

func testDocs() []Document {
	return []Document{
		{ID: "fruit", Text: "apple apple apple"},
		{ID: "animal", Text: "zebra zoo"},
		{ID: "noise", Text: "mmm hmm"},
	}
}

func TestFromDocuments_QueryReturnsNearest(t *testing.T) {
	emb := &letterEmbedder{}
	idx, err := FromDocuments(context.Background(), emb, testDocs(), 0)
	if err != nil {
		t.Fatalf("FromDocuments: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("len=%d want 3", idx.Len())
	}
	if idx.EmbedModel() != "letters" {
		t.Fatalf("embed model=%q", idx.EmbedModel())
	}
	got, err := idx.Query(context.Background(), emb, "apple", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].DocID != "fruit" || got[0].Text != "apple apple apple" {
		t.Fatalf("unexpected match: %+v", got)
	}
	if got[0].Score < 0.9 {
		t.Fatalf("score=%v want close to 1", got[0].Score)
	}
}

func TestQuery_OrdersByScore(t *testing.T) {
	emb := &letterEmbedder{}
	idx, err := FromDocuments(context.Background(), emb, testDocs(), 0)
	if err != nil {
		t.Fatalf("FromDocuments: %v", err)
	}
	got, err := idx.Query(context.Background(), emb, "zebra", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) == 0 || got[0].DocID != "animal" {
		t.Fatalf("nearest should be animal: %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("results not sorted: %+v", got)
		}
	}
}

func TestQuery_MatchesExhaustiveSearch(t *testing.T) {
	emb := &letterEmbedder{}
	rng := rand.New(rand.NewSource(1))
	word := func() string {
		b := make([]byte, 3+rng.Intn(8))
		for i := range b {
			b[i] = byte('a' + rng.Intn(26))
		}
		return string(b)
	}
	var docs []Document
	for i := 0; i < 50; i++ {
		docs = append(docs, Document{ID: fmt.Sprintf("d%02d", i), Text: word() + " " + word()})
	}
	idx, err := FromDocuments(context.Background(), emb, docs, 0)
	if err != nil {
		t.Fatalf("FromDocuments: %v", err)
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	docVecs, _ := emb.Embed(context.Background(), texts)
	for q := 0; q < 50; q++ {
		query := word()
		qv, _ := emb.Embed(context.Background(), []string{query})
		var best float32 = -1
		for _, v := range docVecs {
			if s := cosine(qv[0], v); s > best {
				best = s
			}
		}
		got, err := idx.Query(context.Background(), emb, query, 1)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(got) != 1 || math.Abs(float64(got[0].Score-best)) > 1e-6 {
			t.Fatalf("query %q: got %+v, best score %v", query, got, best)
		}
	}
}

func TestQuery_EmptyIndexAndZeroK(t *testing.T) {
	emb := &letterEmbedder{}
	idx := New(emb.Model(), 0)
	got, err := idx.Query(context.Background(), emb, "apple", 3)
	if err != nil || len(got) != 0 {
		t.Fatalf("empty index: got %v, %v", got, err)
	}
	full, _ := FromDocuments(context.Background(), emb, testDocs(), 0)
	got, err = full.Query(context.Background(), emb, "apple", 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("k=0: got %v, %v", got, err)
	}
}

func TestInsert_Errors(t *testing.T) {
	emb := &letterEmbedder{}
	idx := New("other", 0)
	if err := idx.Insert(context.Background(), emb, testDocs()...); err == nil {
		t.Fatal("expected embedder mismatch error")
	}

	idx = New(emb.Model(), 0)
	if err := idx.Insert(context.Background(), emb, Document{Text: "   "}); err == nil {
		t.Fatal("expected error for blank document")
	}

	boom := errors.New("boom")
	failing := &letterEmbedder{err: boom}
	if err := idx.Insert(context.Background(), failing, testDocs()...); !errors.Is(err, boom) {
		t.Fatalf("want wrapped embed error, got %v", err)
	}

	if err := idx.Insert(context.Background(), emb, Document{ID: "a", Text: "x"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := idx.Insert(context.Background(), emb, Document{ID: "a", Text: "y"}); err == nil {
		t.Fatal("expected duplicate node error")
	}
}

func TestInsert_DerivesContentIDs(t *testing.T) {
	emb := &letterEmbedder{}
	idx, err := FromDocuments(context.Background(), emb, []Document{{Text: "func main() {}"}}, 0)
	if err != nil {
		t.Fatalf("FromDocuments: %v", err)
	}
	got, _ := idx.Query(context.Background(), emb, "main", 1)
	if len(got) != 1 || got[0].DocID != contentID("func main() {}") {
		t.Fatalf("unexpected doc id: %+v", got)
	}
	if !strings.HasPrefix(got[0].ID, got[0].DocID+"#") {
		t.Fatalf("node id %q should extend doc id", got[0].ID)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	emb := &letterEmbedder{}
	idx, err := FromDocuments(context.Background(), emb, testDocs(), 0)
	if err != nil {
		t.Fatalf("FromDocuments: %v", err)
	}
	path := filepath.Join(t.TempDir(), "nested", "index.json")
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadFor(path, emb.Model())
	if err != nil {
		t.Fatalf("LoadFor: %v", err)
	}
	if loaded.Len() != idx.Len() {
		t.Fatalf("loaded len=%d want %d", loaded.Len(), idx.Len())
	}
	got, err := loaded.Query(context.Background(), emb, "zoo", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].DocID != "animal" {
		t.Fatalf("unexpected match after reload: %+v", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("expected decode error")
	}

	future := filepath.Join(dir, "future.json")
	if err := os.WriteFile(future, []byte(`{"version":99}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(future); err == nil || !strings.Contains(err.Error(), "unsupported version") {
		t.Fatalf("want version error, got %v", err)
	}

	emb := &letterEmbedder{}
	idx, _ := FromDocuments(context.Background(), emb, testDocs(), 0)
	path := filepath.Join(dir, "index.json")
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := LoadFor(path, "text-embedding-3-small"); !errors.Is(err, ErrModelMismatch) {
		t.Fatalf("want ErrModelMismatch, got %v", err)
	}
}

func TestSave_ReplacesPreviousIndex(t *testing.T) {
	emb := &letterEmbedder{}
	path := filepath.Join(t.TempDir(), "index.json")
	first, _ := FromDocuments(context.Background(), emb, testDocs(), 0)
	if err := first.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, _ := FromDocuments(context.Background(), emb, []Document{{ID: "only", Text: "hello"}}, 0)
	if err := second.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 1 {
		t.Fatalf("len=%d want 1", loaded.Len())
	}
}
