package assistant

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// StaticTokenSource returns the same token on every call. Useful for tests
// and short-lived jobs.
func StaticTokenSource(token string) TokenSource {
	return func(context.Context) (string, error) {
		if token == "" {
			return "", fmt.Errorf("empty static token")
		}
		return token, nil
	}
}

// FileTokenSource reads a bearer token from a projected token file, the way
// workload identity mounts expose it. The token is cached briefly so polling
// loops do not hit the filesystem on every request.
func FileTokenSource(path string) TokenSource {
	var (
		mu       sync.Mutex
		token    string
		readAt   time.Time
		cacheTTL = time.Minute
	)

	return func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()

		if token != "" && time.Since(readAt) < cacheTTL {
			return token, nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read token file %s: %w", path, err)
		}
		trimmed := strings.TrimSpace(string(raw))
		if trimmed == "" {
			return "", fmt.Errorf("token file %s is empty", path)
		}

		token = trimmed
		readAt = time.Now()
		return token, nil
	}
}
