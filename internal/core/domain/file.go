package domain

// FileContent is one version of a file as seen by the file store.
type FileContent struct {
	// Path is client-relative and slash-separated.
	Path string
	Data []byte
	Hash Hash
}

// FileChangeKind classifies a file change.
type FileChangeKind uint8

const (
	// FileModified covers both created and rewritten files.
	FileModified FileChangeKind = iota
	// FileRemoved means the path no longer exists.
	FileRemoved
)

// String returns the lower-case name of the kind.
func (k FileChangeKind) String() string {
	if k == FileRemoved {
		return "removed"
	}
	return "modified"
}

// FileChange is a path whose content hash differs from the previously recorded one.
type FileChange struct {
	Path string
	Kind FileChangeKind
	Hash Hash
}

// LoadedFile is a file a script read while running, used for cache fingerprints.
type LoadedFile struct {
	Path string
	Hash Hash
}
