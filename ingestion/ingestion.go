// Package ingestion reads the document corpus from disk and splits it into
// bounded, overlapping segments ready for indexing.
package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// Document is a raw source document before splitting.
type Document struct {
	Path    string
	Content string
}

type Service struct {
	logger  *log.Logger
	size    int
	overlap int
}

func NewService(logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		logger:  logger,
		size:    defaultChunkSize,
		overlap: defaultChunkOverlap,
	}
}

// LoadDirectory reads every supported document under dir. A missing directory
// or an empty corpus is not an error: it returns no documents and the caller
// runs without a retrieval index.
func (s *Service) LoadDirectory(ctx context.Context, dir string) ([]Document, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			s.logger.Printf("document directory %s does not exist, retrieval disabled", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("stat document directory: %w", err)
	}

	paths := make([]string, 0)
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if supportedExtension(filepath.Ext(d.Name())) {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("walk document directory: %w", err)
	}

	documents := make([]Document, 0, len(paths))
	for _, path := range paths {
		content, err := extractText(path)
		if err != nil {
			s.logger.Printf("skip %s: %v", path, err)
			continue
		}
		content = normalizeText(content)
		if strings.TrimSpace(content) == "" {
			s.logger.Printf("skip empty document %s", path)
			continue
		}
		documents = append(documents, Document{Path: path, Content: content})
	}

	return documents, nil
}

// Split breaks a document into chunks of roughly the configured size, carrying
// the trailing paragraph of each chunk into the next one as overlap.
func (s *Service) Split(doc Document) []string {
	return ChunkText(doc.Content, s.size, s.overlap)
}

func supportedExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".txt", ".md":
		return true
	default:
		return false
	}
}

func extractText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDFText(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func normalizeText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// ChunkText accumulates paragraphs up to the target size. When a chunk closes,
// its last paragraph seeds the next chunk so neighboring chunks overlap by up
// to the overlap budget.
func ChunkText(content string, target, overlap int) []string {
	clean := strings.ReplaceAll(content, "\r\n", "\n")
	paragraphs := strings.Split(clean, "\n\n")
	chunks := make([]string, 0)
	current := make([]string, 0)
	currentLen := 0

	for _, paragraph := range paragraphs {
		p := strings.TrimSpace(paragraph)
		if p == "" {
			continue
		}

		paragraphLen := len(p)
		if currentLen+paragraphLen > target && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			last := current[len(current)-1]
			if overlap > 0 && len(last) <= overlap {
				current = []string{last}
				currentLen = len(last)
			} else {
				current = current[:0]
				currentLen = 0
			}
		}

		current = append(current, p)
		currentLen += paragraphLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}

	return chunks
}
