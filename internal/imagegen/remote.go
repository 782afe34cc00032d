package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Remote asks another deployment's /api/generate-image endpoint for the
// picture. Useful when the model key lives on a different host.
type Remote struct {
	endpoint string
	client   *http.Client
}

func NewRemote(endpoint string) *Remote {
	return &Remote{endpoint: endpoint, client: &http.Client{Timeout: 60 * time.Second}}
}

type generateRequest struct {
	Word       string `json:"word"`
	Quirkiness int    `json:"quirkiness"`
}

type generateResponse struct {
	Success    bool   `json:"success"`
	ImageURL   string `json:"imageUrl"`
	Word       string `json:"word,omitempty"`
	Quirkiness int    `json:"quirkiness,omitempty"`
	Error      string `json:"error,omitempty"`
	Details    string `json:"details,omitempty"`
}

func (r *Remote) Generate(ctx context.Context, word string, quirkiness int) (string, error) {
	data, err := json.Marshal(generateRequest{Word: word, Quirkiness: quirkiness})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling image endpoint: %w", err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding image response: %w", err)
	}
	if resp.StatusCode/100 != 2 || !out.Success {
		if out.Error == "" {
			out.Error = "Failed to generate image"
		}
		return "", fmt.Errorf("image endpoint returned %d: %s", resp.StatusCode, out.Error)
	}
	if out.ImageURL == "" {
		return "", errors.New("image endpoint returned no image")
	}
	return out.ImageURL, nil
}
