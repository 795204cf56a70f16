package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gtranslate "google.golang.org/api/translate/v2"
)

const DefaultGoogleEndpoint = "https://translation.googleapis.com/language/translate/"

// GoogleService calls the Cloud Translation v2 REST API authenticated with
// an API key passed as the "key" query parameter.
type GoogleService struct {
	apiKey   string
	endpoint string
	client   *http.Client

	once    sync.Once
	svc     *gtranslate.Service
	initErr error
}

func NewGoogleService(apiKey string) *GoogleService {
	return &GoogleService{
		apiKey:   apiKey,
		endpoint: DefaultGoogleEndpoint,
		client:   &http.Client{Timeout: GoogleTimeout},
	}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) TestConnection(ctx context.Context) bool {
	return testConnection(ctx, s)
}

// service builds the API client once; the underlying http.Client is reused
// across calls and runs.
func (s *GoogleService) service() (*gtranslate.Service, error) {
	s.once.Do(func() {
		s.svc, s.initErr = gtranslate.NewService(context.Background(),
			option.WithHTTPClient(s.client),
			option.WithEndpoint(s.endpoint),
		)
	})
	return s.svc, s.initErr
}

func (s *GoogleService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	if s.apiKey == "" {
		return "", responseError(s.Name(), 0, nil, errors.New("Google API key required"))
	}

	svc, err := s.service()
	if err != nil {
		return "", responseError(s.Name(), 0, nil, fmt.Errorf("failed to create client: %w", err))
	}

	resp, err := svc.Translations.Translate(&gtranslate.TranslateTextRequest{
		Q:      []string{text},
		Source: NormalizeLang(sourceLang),
		Target: NormalizeLang(targetLang),
		Format: "text",
	}).Context(ctx).Do(googleapi.QueryParameter("key", s.apiKey))
	if err != nil {
		return "", s.classify(err)
	}

	if len(resp.Translations) == 0 || resp.Translations[0].TranslatedText == "" {
		return "", responseError(s.Name(), resp.HTTPStatusCode, nil, errors.New("empty translation response"))
	}

	return resp.Translations[0].TranslatedText, nil
}

func (s *GoogleService) classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		var cause error
		if apiErr.Message != "" {
			cause = fmt.Errorf("API error: %s", apiErr.Message)
		}
		return responseError(s.Name(), apiErr.Code, []byte(apiErr.Body), cause)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return responseError(s.Name(), 0, nil, fmt.Errorf("failed to decode response: %w", err))
	}

	return transportError(s.Name(), err)
}
