package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"gopkg.in/yaml.v3"

	"github.com/saeedalam/nodewise/pkg/types"
)

// Source pulls the full list of node types from the system of record.
type Source interface {
	Fetch(ctx context.Context) ([]types.NodeDescriptor, error)
	Name() string
}

// NewSource picks a FileSource or an HTTPSource from location.
func NewSource(location, apiKey string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location, APIKey: apiKey}
	}
	return &FileSource{Path: location}
}

// =============================================================================
// STATIC SOURCE
// =============================================================================

// StaticSource serves a fixed list. Err, when set, is returned instead.
type StaticSource struct {
	Nodes []types.NodeDescriptor
	Err   error
}

func (s *StaticSource) Fetch(ctx context.Context) ([]types.NodeDescriptor, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Nodes, nil
}

func (s *StaticSource) Name() string { return "static" }

// =============================================================================
// FILE SOURCE
// =============================================================================

// FileSource reads node types from a JSON or YAML file. Both a bare list
// and an object with a "data" list are accepted.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Fetch(ctx context.Context) ([]types.NodeDescriptor, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", s.Path, err)
		}
	}
	nodes, err := decodeNodeTypes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path, err)
	}
	return nodes, nil
}

// yamlToJSON re-encodes a YAML document as JSON so descriptors go through
// their n8n-aware JSON decoding.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func decodeNodeTypes(data []byte) ([]types.NodeDescriptor, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty node type list")
	}
	if data[0] == '{' {
		var wrapped struct {
			Data []types.NodeDescriptor `json:"data"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Data, nil
	}
	var nodes []types.NodeDescriptor
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// =============================================================================
// HTTP SOURCE
// =============================================================================

// Defaults for HTTPSource retries.
const (
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 500 * time.Millisecond
)

// HTTPSource fetches the node type list from an n8n instance, retrying
// transient failures with exponential backoff.
type HTTPSource struct {
	URL          string
	APIKey       string
	Client       *http.Client
	MaxRetries   int
	InitialDelay time.Duration
}

func (s *HTTPSource) Name() string { return s.URL }

func (s *HTTPSource) Fetch(ctx context.Context) ([]types.NodeDescriptor, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	maxRetries := s.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	initialDelay := s.InitialDelay
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = initialDelay
	expBackoff.MaxInterval = 20 * initialDelay
	expBackoff.Reset()

	operation := func() ([]types.NodeDescriptor, error) {
		return s.fetchOnce(ctx, client)
	}
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(maxRetries+1)), // #nosec G115 -- includes the initial attempt
	)
}

func (s *HTTPSource) fetchOnce(ctx context.Context, client *http.Client) ([]types.NodeDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if s.APIKey != "" {
		req.Header.Set("X-N8N-API-KEY", s.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("node type source returned %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("node type source returned %s", resp.Status))
	}

	nodes, err := decodeNodeTypes(body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decoding node types: %w", err))
	}
	return nodes, nil
}
