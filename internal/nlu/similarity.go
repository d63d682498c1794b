package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Similarity 计算两段文本的相似度，返回值在 [0,1]。
type Similarity interface {
	Score(ctx context.Context, a, b string) (float64, error)
}

// EmbeddingSimilarity 用 OpenAI 兼容的 embeddings 接口取向量，再算余弦相似度。
type EmbeddingSimilarity struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewEmbeddingSimilarity 创建相似度客户端。model 为空时用 text-embedding-3-small。
func NewEmbeddingSimilarity(baseURL, apiKey, model string) *EmbeddingSimilarity {
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &EmbeddingSimilarity{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Score 返回 a 与 b 的余弦相似度。
// 两段文本合并成一次 embeddings 请求，省一次网络往返。
func (s *EmbeddingSimilarity) Score(ctx context.Context, a, b string) (float64, error) {
	reqBody := map[string]any{
		"input": []string{a, b},
		"model": s.model,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("embeddings (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Data) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(result.Data))
	}

	sim := CosineSimilarity(result.Data[0].Embedding, result.Data[1].Embedding)
	// 余弦值理论上可为负，口径统一裁剪到 [0,1]。
	if sim < 0 {
		sim = 0
	}
	return sim, nil
}

// CosineSimilarity 计算两个向量的余弦相似度。
// 长度不一致或任一向量为零向量时返回 0。
func CosineSimilarity(a, b []float64) float64 {
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
