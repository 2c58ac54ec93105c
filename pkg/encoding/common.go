package encoding

import (
	"fmt"
	"os"

	"github.com/eknkc/basex"
)

// LoadAndUnmarshal provides the underlying loading and unmarshaling
// functionality for the encoding package. It reads the data at the specified
// path and then invokes the specified unmarshaling callback (usually a closure)
// to decode the data.
func LoadAndUnmarshal(path string, unmarshal func([]byte) error) error {
	// Grab the file contents.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("unable to load file: %w", err)
	}

	// Perform the unmarshaling.
	if err := unmarshal(data); err != nil {
		return fmt.Errorf("unable to unmarshal data: %w", err)
	}

	// Success.
	return nil
}

// base62 is the alphabet used by Fingerprint. It's created once at package
// initialization since basex.NewEncoding does non-trivial table building.
var base62, _ = basex.NewEncoding("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")

// Fingerprint renders sum (typically a content hash) as a short Base62
// string, for humans to eyeball and compare between pack invocations.
func Fingerprint(sum []byte) string {
	return base62.Encode(sum)
}
