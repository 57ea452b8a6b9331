package huggingface

import (
	"bytes"
	"encoding/json"
	"strings"
)

// transformers stores "unbounded" as a huge float (VERY_LARGE_INTEGER).
const unboundedLength = 1e9

// Tokenizer is the auxiliary handle of the hub connectors. Tokenization runs
// server-side; the handle keeps what is needed to post-process output.
type Tokenizer struct {
	ModelID   string
	MaxLength int // 0 when the config leaves it unbounded
	// LowerCase is set for uncased models; their input is lower-cased.
	LowerCase bool
	Special   []string
}

// Close is a no-op; tokenizer handles are shared through the cache.
func (t *Tokenizer) Close() error { return nil }

// Normalize prepares a prompt the way the model's tokenizer expects it.
func (t *Tokenizer) Normalize(s string) string {
	if t != nil && t.LowerCase {
		return strings.ToLower(s)
	}
	return s
}

// Decode removes special tokens from generated text, as
// decode(skip_special_tokens=True) does.
func (t *Tokenizer) Decode(s string) string {
	if t == nil {
		return strings.TrimSpace(s)
	}
	for _, tok := range t.Special {
		if tok != "" {
			s = strings.ReplaceAll(s, tok, "")
		}
	}
	return strings.TrimSpace(s)
}

// specialToken accepts both "</s>" and {"content": "</s>", ...}.
type specialToken string

func (s *specialToken) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = specialToken(v)
		return nil
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*s = specialToken(obj.Content)
	return nil
}

type tokenizerConfigJSON struct {
	ModelMaxLength float64        `json:"model_max_length"`
	DoLowerCase    bool           `json:"do_lower_case"`
	BOS            specialToken   `json:"bos_token"`
	EOS            specialToken   `json:"eos_token"`
	PAD            specialToken   `json:"pad_token"`
	UNK            specialToken   `json:"unk_token"`
	CLS            specialToken   `json:"cls_token"`
	SEP            specialToken   `json:"sep_token"`
	MASK           specialToken   `json:"mask_token"`
	Additional     []specialToken `json:"additional_special_tokens"`
}

func (c tokenizerConfigJSON) tokenizer(id string) *Tokenizer {
	t := &Tokenizer{ModelID: id, LowerCase: c.DoLowerCase}
	if c.ModelMaxLength > 0 && c.ModelMaxLength < unboundedLength {
		t.MaxLength = int(c.ModelMaxLength)
	}
	seen := make(map[string]bool)
	add := func(tok specialToken) {
		s := string(tok)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		t.Special = append(t.Special, s)
	}
	for _, tok := range []specialToken{c.BOS, c.EOS, c.PAD, c.UNK, c.CLS, c.SEP, c.MASK} {
		add(tok)
	}
	for _, tok := range c.Additional {
		add(tok)
	}
	return t
}
