package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/snarg/verba/internal/audio"
)

// WhisperClient calls an OpenAI-compatible /v1/audio/transcriptions endpoint.
// Chunks are rendered to in-memory 16-bit WAV before upload, so any
// compatible server (speaches, faster-whisper-server, OpenAI itself) works.
type WhisperClient struct {
	url      string
	model    string
	apiKey   string
	language string
	client   *http.Client
}

// whisperResponse is the verbose_json payload from the Whisper API.
type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// NewWhisperClient creates a Whisper HTTP client. The timeout bounds the
// whole HTTP exchange; per-chunk deadlines come from the caller's context.
func NewWhisperClient(url, model, apiKey, language string, timeout time.Duration) *WhisperClient {
	return &WhisperClient{
		url:      url,
		model:    model,
		apiKey:   apiKey,
		language: language,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *WhisperClient) Name() string  { return "whisper" }
func (c *WhisperClient) Model() string { return c.model }

// Transcribe uploads the samples as multipart/form-data and parses the
// verbose_json response.
func (c *WhisperClient) Transcribe(ctx context.Context, samples []float64, sampleRate int) (*Response, error) {
	wavData, err := audio.Encode(samples, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("render chunk: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "chunk.wav")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	if c.model != "" {
		w.WriteField("model", c.model)
	}
	lang := c.language
	if lang == "" {
		lang = "en"
	}
	w.WriteField("language", lang)
	w.WriteField("temperature", "0.00")
	w.WriteField("response_format", "verbose_json")
	w.WriteField("timestamp_granularities[]", "word")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed whisperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := &Response{
		Text:     parsed.Text,
		Language: parsed.Language,
		Duration: parsed.Duration,
	}
	for _, wd := range parsed.Words {
		out.Words = append(out.Words, Word{Word: wd.Word, Start: wd.Start, End: wd.End})
	}
	return out, nil
}
