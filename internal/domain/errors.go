package domain

import "errors"

var (
	// ErrSearchUnavailable signals that the relational store could not serve
	// any collection. Distinct from a zero-result response.
	ErrSearchUnavailable = errors.New("search temporarily unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
