package port

// ReferenceProvider serves the static documents that describe the queryable
// tables. Both methods are pure lookups.
type ReferenceProvider interface {
	Tables() string
	Structure() string
}
