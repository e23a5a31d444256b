package cache

// ScopedKeyer wraps a Keyer with a prefix so several vaults or tenants can
// share one backend without seeing each other's entries.
//
// Example usage:
//
//	// Keys for documents of one vault
//	vaultKeyer := NewScopedKeyer(NewDefaultKeyer(), "vault:notes:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ImportKey generates a prefixed key for decoded documents.
func (k *ScopedKeyer) ImportKey(format, sourceHash string, opts ImportKeyOpts) string {
	return k.prefix + k.inner.ImportKey(format, sourceHash, opts)
}

// LayoutKey generates a prefixed key for organized documents.
func (k *ScopedKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(docHash, opts)
}

// ArtifactKey generates a prefixed key for encoded outputs.
func (k *ScopedKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(docHash, opts)
}
