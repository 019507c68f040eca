package anchor

import "crypto/sha256"

// GetDiscriminator returns the 8-byte anchor discriminator for a
// namespaced symbol, sha256("<namespace>:<name>")[:8].
func GetDiscriminator(namespace string, name string) []byte {
	hash := sha256.Sum256([]byte(namespace + ":" + name))
	return hash[:8]
}

// AccountDiscriminator returns the discriminator prefixing anchor account
// data for the given account struct name.
func AccountDiscriminator(name string) []byte {
	return GetDiscriminator("account", name)
}
