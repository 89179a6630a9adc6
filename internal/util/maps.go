package util

import "fmt"

// GetOne returns the single entry from a map. If the map is empty or
// has more than one entry, it returns an error.
func GetOne[K comparable, T any](m map[K]T) (K, T, error) {
	var zeroK K
	var zeroT T
	if len(m) == 0 {
		return zeroK, zeroT, fmt.Errorf("no element found")
	}
	if len(m) > 1 {
		return zeroK, zeroT, fmt.Errorf("multiple elements found")
	}
	for k, v := range m {
		return k, v, nil
	}
	return zeroK, zeroT, fmt.Errorf("no element found")
}
