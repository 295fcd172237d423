// Package loader provides a unified DocumentLoader interface and the file
// loaders that feed the knowledge-base indexing pipeline.
//
// It bridges the gap between raw knowledge-base files and the rag.Document
// type used by the chunker and the vector store. Each loader reads a specific
// format and produces []rag.Document with source and title filled in.
//
// Supported formats out of the box:
//   - Plain text (.txt)
//   - Markdown (.md)
//
// Use Registry to route loading by file extension, or LoadDir to ingest an
// entire knowledge-base directory:
//
//	registry := loader.NewRegistry()
//	docs, err := registry.LoadDir(ctx, "kb/")
package loader
