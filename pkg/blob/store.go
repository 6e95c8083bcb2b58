package blob

// Store is the byte-storage collaborator behind the document registry. A ref is
// opaque to callers; the same bytes always yield the same ref so the registry
// can share one object across duplicate uploads.
type Store interface {
	Put(data []byte) (string, error)
	Get(ref string) ([]byte, error)
	Delete(ref string) error
}
