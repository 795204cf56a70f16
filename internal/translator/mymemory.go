package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/valpere/lokator/internal/chunker"
)

const (
	DefaultMyMemoryURL = "https://api.mymemory.translated.net"

	// MyMemoryMaxChars is the per-request text limit of the public API.
	MyMemoryMaxChars = 500

	// MyMemoryChunkInterval spaces out the requests for one chunked text.
	MyMemoryChunkInterval = 100 * time.Millisecond
)

// MyMemoryService talks to the length-limited MyMemory GET API. Text longer
// than MyMemoryMaxChars is split into word-aligned chunks that are translated
// one by one and joined with single spaces.
type MyMemoryService struct {
	baseURL string
	email   string
	client  *http.Client
	limiter *rate.Limiter // nil: chunks are sent back to back
}

// NewMyMemoryService creates the service. email is optional and raises the
// anonymous daily quota.
func NewMyMemoryService(email string) *MyMemoryService {
	return &MyMemoryService{
		baseURL: DefaultMyMemoryURL,
		email:   email,
		client:  &http.Client{Timeout: MyMemoryTimeout},
		limiter: rate.NewLimiter(rate.Every(MyMemoryChunkInterval), 1),
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

func (s *MyMemoryService) TestConnection(ctx context.Context) bool {
	return testConnection(ctx, s)
}

func (s *MyMemoryService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	if !chunker.Exceeds(text, MyMemoryMaxChars) {
		return s.translateChunk(ctx, text, sourceLang, targetLang)
	}

	chunks := chunker.Split(text, MyMemoryMaxChars)
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return "", transportError(s.Name(), err)
			}
		}
		translated, err := s.translateChunk(ctx, chunk, sourceLang, targetLang)
		if err != nil {
			return "", err
		}
		parts = append(parts, translated)
	}

	return chunker.Join(parts), nil
}

func (s *MyMemoryService) translateChunk(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	langPair := fmt.Sprintf("%s|%s", myMemoryLang(sourceLang), myMemoryLang(targetLang))

	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", langPair)
	if s.email != "" {
		params.Set("de", s.email)
	}
	apiURL := s.baseURL + "/get?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", responseError(s.Name(), 0, nil, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", transportError(s.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(s.Name(), err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", responseError(s.Name(), resp.StatusCode, body, nil)
	}

	var mymemResp struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		// responseStatus is a number on success but a string on some errors.
		ResponseStatus  json.Number `json:"responseStatus"`
		ResponseDetails string      `json:"responseDetails"`
	}

	if err := json.Unmarshal(body, &mymemResp); err != nil {
		return "", responseError(s.Name(), resp.StatusCode, body, fmt.Errorf("failed to decode response: %w", err))
	}

	if status, err := mymemResp.ResponseStatus.Int64(); err == nil && status != http.StatusOK {
		return "", responseError(s.Name(), int(status), body, fmt.Errorf("API error: %s", mymemResp.ResponseDetails))
	}

	if mymemResp.ResponseData.TranslatedText == "" {
		return "", responseError(s.Name(), resp.StatusCode, body, fmt.Errorf("empty translation response"))
	}

	return mymemResp.ResponseData.TranslatedText, nil
}
