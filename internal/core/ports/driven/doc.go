// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Turns text into vectors. The core wraps the configured
//     backends in a fallback chain; the chain fails only when every backend fails.
//   - KnowledgeStore: Domain-partitioned vector + metadata persistence (SQLite or memory).
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - AIConfigValidator: Connectivity checks used by the settings commands.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
