package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoImage means the model answered without any inline image.
var ErrNoImage = errors.New("no image data in gemini response")

const (
	DefaultGeminiModel = "gemini-2.0-flash-exp-image-generation"
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/models"
)

// APIError is a non-2xx answer from the model endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string { return fmt.Sprintf("gemini api error: %d", e.Status) }

// Gemini calls the Gemini generateContent endpoint directly.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL returns a copy that talks to another endpoint, e.g. a
// regional gateway. An empty url keeps the current one.
func (g *Gemini) WithBaseURL(u string) *Gemini {
	c := *g
	if u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
	return &c
}

func (g *Gemini) Configured() bool { return g != nil && g.apiKey != "" }

type geminiPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		Data     string `json:"data"`
		MimeType string `json:"mimeType"`
	} `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature        float64  `json:"temperature"`
		MaxOutputTokens    int      `json:"maxOutputTokens"`
		ResponseModalities []string `json:"responseModalities"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate returns a data URL holding the generated picture.
func (g *Gemini) Generate(ctx context.Context, word string, quirkiness int) (string, error) {
	if !g.Configured() {
		return "", errors.New("GEMINI_API_KEY not configured")
	}

	var body geminiRequest
	body.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: Prompt(word, quirkiness)}}}}
	body.GenerationConfig.Temperature = 0.8
	body.GenerationConfig.MaxOutputTokens = 8192
	body.GenerationConfig.ResponseModalities = []string{"IMAGE", "TEXT"}

	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	// The key travels in a header so it never shows up in a *url.Error.
	endpoint := fmt.Sprintf("%s/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{Status: resp.StatusCode, Body: string(text)}
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding gemini response: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", errors.New("no candidates in gemini response")
	}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		mime := part.InlineData.MimeType
		if mime == "" {
			mime = "image/png"
		}
		return "data:" + mime + ";base64," + part.InlineData.Data, nil
	}
	return "", ErrNoImage
}
