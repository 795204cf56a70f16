package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const DefaultLibreTranslateURL = "https://libretranslate.com"

// Public instances reject obvious bot traffic; these headers make requests
// look like they come from the instance's own web UI.
const (
	libreUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	libreAccept    = "application/json, text/plain, */*"
)

// LibreTranslateService talks to a self-hosted or public LibreTranslate
// instance. No API key is required; an empty api_key is always sent.
type LibreTranslateService struct {
	baseURL string
	client  *http.Client
}

func NewLibreTranslateService(baseURL string) *LibreTranslateService {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	return &LibreTranslateService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: LibreTranslateTimeout},
	}
}

func (s *LibreTranslateService) Name() string {
	return "libretranslate"
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key"`
}

func (s *LibreTranslateService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	jsonData, err := json.Marshal(libreRequest{
		Q:      text,
		Source: libreLang(sourceLang),
		Target: libreLang(targetLang),
		Format: "text",
	})
	if err != nil {
		return "", responseError(s.Name(), 0, nil, fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/translate", bytes.NewReader(jsonData))
	if err != nil {
		return "", responseError(s.Name(), 0, nil, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	s.setBrowserHeaders(httpReq)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", transportError(s.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(s.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", responseError(s.Name(), resp.StatusCode, body, nil)
	}

	var libreResp struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.Unmarshal(body, &libreResp); err != nil {
		return "", responseError(s.Name(), resp.StatusCode, body, fmt.Errorf("failed to decode response: %w", err))
	}

	if libreResp.TranslatedText == "" {
		return "", responseError(s.Name(), resp.StatusCode, body, fmt.Errorf("empty translation response"))
	}

	return libreResp.TranslatedText, nil
}

// TestConnection checks GET /languages first, then translates the probe.
func (s *LibreTranslateService) TestConnection(ctx context.Context) bool {
	if _, err := s.Languages(ctx); err != nil {
		return false
	}
	return testConnection(ctx, s)
}

// Languages returns the language codes the instance supports.
func (s *LibreTranslateService) Languages(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/languages", nil)
	if err != nil {
		return nil, err
	}
	s.setBrowserHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transportError(s.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(s.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(s.Name(), resp.StatusCode, body, nil)
	}

	var langs []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &langs); err != nil {
		return nil, responseError(s.Name(), resp.StatusCode, body, fmt.Errorf("failed to decode languages: %w", err))
	}

	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, l.Code)
	}
	return codes, nil
}

func (s *LibreTranslateService) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", libreUserAgent)
	req.Header.Set("Accept", libreAccept)
	req.Header.Set("Origin", s.baseURL)
	req.Header.Set("Referer", s.baseURL+"/")
}
