package index

// ContentIndex defines the interface for load-result indexing.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with mocks.
type ContentIndex interface {
	UpsertMod(m ModRow) error
	DeleteMod(id string) error
	GetMod(id string) (*ModRow, error)
	ListMods() ([]ModRow, error)
	AllModIDs() (map[string]struct{}, error)
	UpsertDocument(key, checksum, body string) error
	DeleteDocument(key string) error
	GetDocument(key string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ContentIndex at compile time.
var _ ContentIndex = (*DB)(nil)
