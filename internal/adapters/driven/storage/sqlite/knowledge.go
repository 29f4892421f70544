package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/custodia-labs/ragkit/internal/adapters/driven/storage/scan"
	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
)

// Upsert stores or replaces a document. The first document of a domain
// with unfixed dimensions fixes them in the same transaction.
func (s *Store) Upsert(ctx context.Context, doc domain.Document) error {
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: document %s has no embedding", domain.ErrInvalidInput, doc.ID)
	}
	dims := len(doc.Embedding)
	fixed, err := s.checkDimensions(doc.Domain, dims)
	if err != nil {
		return err
	}

	metadata, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrKnowledgeStore, err)
	}
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now()
	}

	if fixed {
		return insertDocument(ctx, s.db, doc, metadata)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another writer may have fixed it meanwhile.
	if current := s.dimensions[doc.Domain]; current != 0 && current != dims {
		return fmt.Errorf("%w: domain %s stores %d dimensions, got %d",
			domain.ErrDimensionMismatch, doc.Domain, current, dims)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert %s: %w", domain.ErrKnowledgeStore, doc.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE knowledge_domains SET dimensions = ? WHERE name = ? AND dimensions = 0", dims, doc.Domain,
	); err != nil {
		return fmt.Errorf("%w: fixing dimensions of %s: %w", domain.ErrKnowledgeStore, doc.Domain, err)
	}
	if err := insertDocument(ctx, tx, doc, metadata); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert %s: %w", domain.ErrKnowledgeStore, doc.ID, err)
	}

	s.dimensions[doc.Domain] = dims
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDocument(ctx context.Context, db execer, doc domain.Document, metadata string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO knowledge_documents (id, domain, content, metadata, source, created_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, id) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata,
			source = excluded.source,
			created_at = excluded.created_at,
			embedding = excluded.embedding
	`, doc.ID, doc.Domain, doc.Content, metadata, doc.Source,
		doc.Timestamp.UTC().Format(time.RFC3339Nano), float32SliceToBytes(doc.Embedding))
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %w", domain.ErrKnowledgeStore, doc.ID, err)
	}
	return nil
}

// checkDimensions reports whether the domain's dimensions are already
// fixed, and rejects a size that disagrees with them.
func (s *Store) checkDimensions(domainName string, dims int) (bool, error) {
	s.mu.RLock()
	current, ok := s.dimensions[domainName]
	s.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrInvalidDomain, domainName)
	}
	if current != 0 && current != dims {
		return false, fmt.Errorf("%w: domain %s stores %d dimensions, got %d",
			domain.ErrDimensionMismatch, domainName, current, dims)
	}
	return current != 0, nil
}

// Search returns the k nearest documents that satisfy filter.
func (s *Store) Search(
	ctx context.Context, domainName string, query []float32, k int, filter domain.MetadataFilter,
) ([]driven.KnowledgeHit, error) {
	s.mu.RLock()
	dims, ok := s.dimensions[domainName]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDomain, domainName)
	}
	if dims != 0 && dims != len(query) {
		return nil, fmt.Errorf("%w: domain %s stores %d dimensions, query has %d",
			domain.ErrDimensionMismatch, domainName, dims, len(query))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, metadata, source, created_at, embedding
		FROM knowledge_documents
		WHERE domain = ?
		ORDER BY rowid
	`, domainName)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrKnowledgeStore, domainName, err)
	}
	defer rows.Close()

	nearest := scan.NewNearest(k)
	for rows.Next() {
		var (
			doc          = domain.Document{Domain: domainName}
			metadataJSON string
			createdAt    string
			blob         []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metadataJSON, &doc.Source, &createdAt, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning document: %w", domain.ErrKnowledgeStore, err)
		}

		doc.Metadata, err = unmarshalMetadata(metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s: %w", domain.ErrKnowledgeStore, doc.ID, err)
		}
		if !filter.Matches(doc.Metadata) {
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			doc.Timestamp = ts
		}

		nearest.Add(driven.KnowledgeHit{
			Document: doc,
			Distance: scan.CosineDistance(query, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating documents: %w", domain.ErrKnowledgeStore, err)
	}

	return nearest.Results(), nil
}

// Count returns the number of documents in a domain.
func (s *Store) Count(ctx context.Context, domainName string) (int, error) {
	s.mu.RLock()
	_, ok := s.dimensions[domainName]
	s.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDomain, domainName)
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM knowledge_documents WHERE domain = ?", domainName,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", domain.ErrKnowledgeStore, domainName, err)
	}
	return count, nil
}

// Domains returns the registry with each domain's fixed dimensionality.
func (s *Store) Domains() []domain.KnowledgeDomain {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domains := slices.Clone(s.registry)
	for i := range domains {
		domains[i].Dimensions = s.dimensions[domains[i].Name]
	}
	return domains
}
