package cache

import "strings"

// Key types, used as key prefixes and as the keyType of cache hooks.
const (
	KeyTypeImport   = "import"
	KeyTypeLayout   = "layout"
	KeyTypeArtifact = "artifact"
)

// Keyer builds cache keys. Keys of different types never collide.
type Keyer interface {
	// ImportKey identifies a decoded document by its source format and the
	// hash of its raw bytes.
	ImportKey(format, sourceHash string, opts ImportKeyOpts) string

	// LayoutKey identifies an organized document by the hash of its input.
	LayoutKey(docHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies an encoded output of a document.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// ImportKeyOpts holds the import options that change the decoded result.
type ImportKeyOpts struct {
	Strict       bool   `json:"strict"`
	AutoOrganize bool   `json:"auto_organize"`
	Seed         uint64 `json:"seed"`
}

// LayoutKeyOpts holds the layout options that change node positions.
type LayoutKeyOpts struct {
	Algorithm  string  `json:"algorithm"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Iterations int     `json:"iterations"`
	Resolve    bool    `json:"resolve"`
}

// ArtifactKeyOpts holds the export options that change encoded output.
type ArtifactKeyOpts struct {
	Format          string  `json:"format"`
	IncludeMetadata bool    `json:"include_metadata"`
	Transparent     bool    `json:"transparent"`
	Background      string  `json:"background"`
	Padding         float64 `json:"padding"`
	Mode            string  `json:"mode,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ImportKey implements Keyer.
func (DefaultKeyer) ImportKey(format, sourceHash string, opts ImportKeyOpts) string {
	return hashKey(KeyTypeImport, format, sourceHash, opts)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey(KeyTypeLayout, docHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, docHash, opts)
}

// KeyType returns the type of a key built by a Keyer, or "" for foreign
// keys. Scope prefixes are ignored.
func KeyType(key string) string {
	const suffix = 1 + 64 // ":" + hex SHA-256
	if len(key) <= suffix {
		return ""
	}
	head := key[:len(key)-suffix]
	for _, t := range []string{KeyTypeImport, KeyTypeLayout, KeyTypeArtifact} {
		if strings.HasSuffix(head, t) {
			return t
		}
	}
	return ""
}
