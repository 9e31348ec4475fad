package port

import "doclookup/internal/domain"

// SimilarityIndex is an ordered collection of vectors addressed by the
// zero-based ordinal they were added under.
type SimilarityIndex interface {
	// Add appends vectors; the first gets ordinal Len().
	Add(vectors [][]float32) error

	// Search returns up to k nearest vectors by L2 distance, closest first.
	Search(query []float32, k int) ([]domain.Neighbor, error)

	// Len returns the number of vectors in the index.
	Len() int

	// Dimension returns the vector dimension.
	Dimension() int

	// Save persists the index at path.
	Save(path string) error
}
