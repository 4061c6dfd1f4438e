package task

import (
	"context"
	"math"
	"sort"

	"github.com/dshills/llmcore/llm"
	"github.com/dshills/llmcore/llm/capability"
)

// Embed computes vector embeddings for a batch of text inputs.
func Embed(ctx context.Context, inputs []string, cfg llm.LLMConfig, embedder capability.EmbeddingCapability, cancel *llm.CancelToken) ([]capability.EmbeddingResult, *llm.Usage, error) {
	return embedder.Embed(ctx, inputs, cfg, cancel)
}

// Rerank scores documents against a query using a provider's native rerank
// endpoint.
func Rerank(ctx context.Context, query string, documents []string, cfg llm.LLMConfig, reranker capability.RerankCapability, cancel *llm.CancelToken) ([]capability.RerankResult, error) {
	return reranker.Rerank(ctx, query, documents, cfg, cancel)
}

// RerankByEmbedding is the fallback reranker for providers with no native
// rerank endpoint: it embeds [query, ...documents] and ranks documents by
// cosine similarity to the query, most relevant first. topK, if non-nil,
// truncates the ranked list.
func RerankByEmbedding(ctx context.Context, query string, documents []string, cfg llm.LLMConfig, embedder capability.EmbeddingCapability, cancel *llm.CancelToken, topK *int) ([]capability.RerankResult, error) {
	inputs := append([]string{query}, documents...)
	embeddings, _, err := embedder.Embed(ctx, inputs, cfg, cancel)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(inputs) {
		return nil, llm.NewError(llm.KindResponseFormat, "embedding provider returned %d vectors for %d inputs", len(embeddings), len(inputs))
	}

	byIndex := make([][]float64, len(inputs))
	for _, e := range embeddings {
		byIndex[e.Index] = e.Embedding
	}
	queryVec := byIndex[0]

	results := make([]capability.RerankResult, 0, len(documents))
	for i, doc := range documents {
		results = append(results, capability.RerankResult{
			Doc:           doc,
			Score:         cosineSimilarity(queryVec, byIndex[i+1]),
			OriginalIndex: i,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	for i := range results {
		results[i].Index = i
	}

	if topK != nil && *topK >= 0 && *topK < len(results) {
		results = results[:*topK]
	}

	return results, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
