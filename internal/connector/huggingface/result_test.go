package huggingface

import (
	"testing"

	"completiond/internal/registry"
)

func inputOf(prompt string) registry.Input { return registry.Input{Prompt: prompt} }

func TestClassificationsString(t *testing.T) {
	cases := []struct {
		in   Classifications
		want string
	}{
		{nil, "[]"},
		{Classifications{{Label: "Positive", Score: 1}}, "[{'label': 'Positive', 'score': 1.0}]"},
		{Classifications{{Label: "Neutral", Score: 0.00001}}, "[{'label': 'Neutral', 'score': 1e-05}]"},
		{Classifications{{Label: "a", Score: 0.5}, {Label: "b", Score: 0.25}}, "[{'label': 'a', 'score': 0.5}, {'label': 'b', 'score': 0.25}]"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Fatalf("got %q want %q", got, c.want)
		}
	}
}

func TestTop(t *testing.T) {
	if _, ok := top(nil); ok {
		t.Fatalf("top of empty slice")
	}
	best, _ := top([]Classification{{"a", 0.1}, {"b", 0.7}, {"c", 0.2}})
	if best.Label != "b" {
		t.Fatalf("best=%+v", best)
	}
}
