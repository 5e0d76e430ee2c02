// Package llm defines the completion collaborator used by the analyzer: a
// persona instruction plus one user message in, one free-text reply out.
// Provider adapters live in subpackages.
package llm
