package archive

// Archiver persists run-report snapshots for later inspection.
type Archiver interface {
	Store(filename string, data []byte) error
	Retrieve(filename string) ([]byte, error)
	List(prefix string) ([]string, error)
}
