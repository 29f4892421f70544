package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragkit/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.KnowledgeStore = (*Store)(nil)

// dbFile is the database file name inside the data directory.
const dbFile = "knowledge.db"

// Store is a SQLite-backed knowledge store.
type Store struct {
	db   *sql.DB
	path string

	// mu guards the registry and the fixed dimensions.
	mu         sync.RWMutex
	registry   []domain.KnowledgeDomain
	dimensions map[string]int
}

// NewStore creates a new SQLite store at the specified data directory and
// registers the given domains.
// If dataDir is empty, defaults to ~/.ragkit/data.
func NewStore(dataDir string, domains []domain.KnowledgeDomain) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragkit", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		dimensions: make(map[string]int, len(domains)),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := s.register(context.Background(), domains); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return nil
}

// register inserts configured domains and loads their fixed dimensions.
// A domain whose stored dimensions disagree with a non-zero configured
// value is rejected.
func (s *Store) register(ctx context.Context, domains []domain.KnowledgeDomain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range domains {
		fields, err := json.Marshal(d.MetadataFields)
		if err != nil {
			return fmt.Errorf("marshalling metadata fields: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO knowledge_domains (name, description, dimensions, metadata_fields)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				description = excluded.description,
				metadata_fields = excluded.metadata_fields
		`, d.Name, d.Description, d.Dimensions, string(fields)); err != nil {
			return fmt.Errorf("%w: registering domain %s: %w", domain.ErrKnowledgeStore, d.Name, err)
		}

		var stored int
		if err := s.db.QueryRowContext(ctx,
			"SELECT dimensions FROM knowledge_domains WHERE name = ?", d.Name,
		).Scan(&stored); err != nil {
			return fmt.Errorf("%w: reading domain %s: %w", domain.ErrKnowledgeStore, d.Name, err)
		}

		switch {
		case stored == 0 && d.Dimensions > 0:
			if _, err := s.db.ExecContext(ctx,
				"UPDATE knowledge_domains SET dimensions = ? WHERE name = ?", d.Dimensions, d.Name,
			); err != nil {
				return fmt.Errorf("%w: fixing domain %s: %w", domain.ErrKnowledgeStore, d.Name, err)
			}
			stored = d.Dimensions
		case stored > 0 && d.Dimensions > 0 && stored != d.Dimensions:
			return fmt.Errorf("%w: domain %s stores %d dimensions, configured %d",
				domain.ErrDimensionMismatch, d.Name, stored, d.Dimensions)
		}

		s.dimensions[d.Name] = stored
		s.registry = append(s.registry, d)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// marshalMetadata encodes metadata as a JSON object.
func marshalMetadata(metadata map[string]any) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(data), nil
}

// unmarshalMetadata decodes a JSON object. Numbers decode as float64.
func unmarshalMetadata(data string) (map[string]any, error) {
	metadata := map[string]any{}
	if data == "" {
		return metadata, nil
	}
	if err := json.Unmarshal([]byte(data), &metadata); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return metadata, nil
}
