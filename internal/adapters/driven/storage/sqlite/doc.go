// Package sqlite provides a SQLite-based implementation of driven.KnowledgeStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each knowledge domain is a partition of
// the knowledge_documents table, and the knowledge_domains table records the
// embedding size each domain is fixed to.
//
// # Search
//
// Similarity search is an exact scan: rows of the domain are streamed in insertion
// order, metadata filters are evaluated in Go and cosine distance is computed over
// the decoded embedding blobs.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.ragkit/data/knowledge.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
