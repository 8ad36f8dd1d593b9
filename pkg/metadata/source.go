package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxMetadataSize caps remote metadata documents.
const maxMetadataSize = 50 << 20

// Source produces one resolver of the chain on every reload.
type Source interface {
	Load(ctx context.Context) (Resolver, error)
}

// FileSource reads a metadata document from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) (Resolver, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read metadata file: %w", err)
	}
	entities, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return NewDocument(s.Path, entities), nil
}

// URLSource fetches a metadata document over HTTP.
type URLSource struct {
	URL    string
	Client *http.Client
}

func (s URLSource) Load(ctx context.Context) (Resolver, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch metadata %s: status %d", s.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
	if err != nil {
		return nil, fmt.Errorf("read metadata body: %w", err)
	}
	entities, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.URL, err)
	}
	return NewDocument(s.URL, entities), nil
}

// SourcesFor maps configured locations to sources. http(s) locations are
// fetched, everything else is read from disk.
func SourcesFor(locations []string) []Source {
	out := make([]Source, 0, len(locations))
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
			out = append(out, URLSource{URL: loc})
			continue
		}
		out = append(out, FileSource{Path: loc})
	}
	return out
}
