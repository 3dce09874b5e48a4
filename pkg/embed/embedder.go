package embed

import (
	"context"
	"fmt"
)

// Embedder maps texts to fixed-dimension vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Func adapts a plain function to Embedder.
type Func func(ctx context.Context, texts []string) ([][]float32, error)

func (f Func) Embed(ctx context.Context, texts []string) ([][]float32, error) { return f(ctx, texts) }

// One embeds a single text.
func One(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed: expected 1 vector, got %d", len(vecs))
	}
	return vecs[0], nil
}

// batches splits n items into [start, end) ranges of at most size items.
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
