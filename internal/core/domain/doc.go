// Package domain defines the core business entities for ragkit.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A stored knowledge item with metadata and embedding
//   - IntentAnalysis: The query-scoped reading of a free-text query
//   - RankedCandidate: A scored search hit before truncation
//   - QueryResult: Ranked documents plus assembled generation context
//   - MetadataFilter: A conjunction of metadata constraints
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
