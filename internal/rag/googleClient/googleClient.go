package googleClient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/akolanti/codex/internal/customHttpClient"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	mu      sync.Mutex
	clients = make(map[string]*genai.Client)
)

// Get returns one genai client per api key, shared by the embedder and the generator.
func Get(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set")
	}
	mu.Lock()
	defer mu.Unlock()
	if c, ok := clients[apiKey]; ok {
		return c, nil
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetPooledClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	clients[apiKey] = c
	return c, nil
}

// IsRateLimited reports quota errors from either the REST or the gRPC surface.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}
