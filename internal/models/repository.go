package models

// Compression selects the filter applied to database archives
type Compression string

const (
	CompressNone Compression = "none"
	CompressGzip Compression = "gzip"
	CompressXZ   Compression = "xz"
	CompressZstd Compression = "zstd"
)

// Extension returns the archive suffix for the compression
func (c Compression) Extension() string {
	switch c {
	case CompressGzip:
		return ".tar.gz"
	case CompressXZ:
		return ".tar.xz"
	case CompressZstd:
		return ".tar.zst"
	default:
		return ".tar"
	}
}

// RepositoryConfig contains configuration for repository updates
type RepositoryConfig struct {
	// Root is the directory holding the packages and the databases
	Root     string
	RepoName string

	Compression Compression
	Files       bool // also write the <name>.files database
	Jobs        int  // packages parsed in parallel

	// Arch restricts updates to packages built for it or for "any";
	// empty accepts every architecture
	Arch    string
	Clean   bool // delete archives that leave the repository
	Rebuild bool // ignore the existing database

	// Signing
	GPGKeyPath    string
	GPGPassphrase string
}
