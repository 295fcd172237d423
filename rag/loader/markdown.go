package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/finassist/finassist/rag"
)

// MarkdownLoader loads Markdown files as a single Document. The first ATX
// heading, when present, becomes the document title; otherwise the file stem
// is used, matching TextLoader.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// Load reads a Markdown file and returns it as a single Document.
func (l *MarkdownLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("markdown loader: %w", err)
	}

	base := filepath.Base(source)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if h := firstHeading(string(data)); h != "" {
		title = h
	}

	doc := rag.Document{
		Source: base,
		Title:  title,
		Text:   string(data),
	}

	return []rag.Document{doc}, nil
}

// firstHeading returns the text of the first ATX-style heading (# Heading),
// or "" if the content has none.
func firstHeading(content string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		level := 0
		for _, ch := range trimmed {
			if ch == '#' {
				level++
			} else {
				break
			}
		}
		if level < 1 || level > 6 {
			continue
		}
		if heading := strings.TrimSpace(trimmed[level:]); heading != "" {
			return heading
		}
	}
	return ""
}

// SupportedTypes returns the extensions handled by MarkdownLoader.
func (l *MarkdownLoader) SupportedTypes() []string {
	return []string{".md"}
}
