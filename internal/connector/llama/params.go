package llama

import "completiond/internal/registry"

const defaultMaxTokens = 128

// paramsFromInput maps request knobs onto backend params.
func paramsFromInput(in registry.Input) Params {
	p := Params{
		MaxTokens:   in.MaxTokens,
		Temperature: float32(in.Temperature),
		TopP:        float32(in.TopP),
		TopK:        in.TopK,
		Seed:        in.Seed,
		Stop:        in.Stop,
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = defaultMaxTokens
	}
	return p
}

type number interface{ ~int | ~float32 }

func positiveOr[T number](v, def T) T {
	if v > 0 {
		return v
	}
	return def
}
