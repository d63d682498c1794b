package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Classifier 给出一段话的意图标签与置信度。
type Classifier interface {
	Classify(ctx context.Context, text string) (label string, confidence float64, err error)
}

// RasaClassifier 调用 rasa NLU 服务做意图识别。
//
// 目前涵盖的意图：notinterest（不感兴趣）continuetosay（还有下句，本句意思不完全）
// praise / praise_bye（赞扬并结束）greeting（打招呼）challenge / challenge_bye（挑衅）
// bye（正常结束对话）badreply（对回复感到困扰）question（提问）complain（抱怨）
// quarrel（争吵）impatient（不耐烦）angry（愤怒）doubt（怀疑）sayno（拒绝）
type RasaClassifier struct {
	url    string
	client *http.Client
}

// NewRasaClassifier 创建意图识别客户端。baseURL 形如 http://localhost:5005。
func NewRasaClassifier(baseURL string) *RasaClassifier {
	return &RasaClassifier{
		url:    baseURL + "/model/parse",
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Ping 发一条探活请求，确认 rasa 服务可用。启动期调用，失败应视为致命。
func (c *RasaClassifier) Ping(ctx context.Context) error {
	if _, _, err := c.Classify(ctx, "你好"); err != nil {
		return fmt.Errorf("rasa server not running: %w", err)
	}
	return nil
}

// Classify 识别文本意图。
func (c *RasaClassifier) Classify(ctx context.Context, text string) (string, float64, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("rasa parse (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Intent struct {
			Name       string  `json:"name"`
			Confidence float64 `json:"confidence"`
		} `json:"intent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", 0, fmt.Errorf("unmarshal response: %w", err)
	}

	return result.Intent.Name, result.Intent.Confidence, nil
}
