package domain

// Document is one file read from the source folder. Its Ordinal is the
// position it was given in the index.
type Document struct {
	Ordinal int
	Name    string
	Path    string
	Content string
}

// FileMapping maps index ordinals to source filenames.
type FileMapping map[int]string

// Neighbor is a single nearest-neighbor hit.
type Neighbor struct {
	Ordinal  int
	Distance float32
}

// RetrievalResult is the outcome of one query. Err is set when the flow
// failed, in which case Paths is empty.
type RetrievalResult struct {
	Query string
	Paths []string
	Err   error
}

// OK reports whether the retrieval completed without error.
func (r RetrievalResult) OK() bool {
	return r.Err == nil
}
