//go:build !profile

package prof

// Enabled reports whether the binary was built with the profile tag.
const Enabled = false

// Start is a no-op when built without the "profile" tag.
func Start(_ Options) (stop func() error, err error) {
	return func() error { return nil }, nil
}
