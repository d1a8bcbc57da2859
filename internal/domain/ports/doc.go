// Package ports defines the interfaces the domain layer depends on.
// Implementations live in internal/infrastructure; the domain and
// application layers only see these contracts.
package ports
