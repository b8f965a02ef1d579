// Package ports declares the collaborator interfaces the evaluation core
// depends on. Adapters under pkg/adapters implement them; tests substitute
// in-memory doubles.
package ports
