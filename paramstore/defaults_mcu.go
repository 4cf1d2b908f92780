//go:build rp2040

package paramstore

// LoadDefaults returns the cold-start defaults on the MCU build: the
// store's own initialized-marker rule in Initialize is the only seeding
// mechanism on real hardware, so there is no JSON to decode here.
func LoadDefaults() Defaults {
	return ReferenceDefaults
}
