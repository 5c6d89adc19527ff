// Package synth derives stable pseudo-random parameters from string keys.
//
// Several published signals (liquidity estimates, inter-venue price
// variance, gas cost proxies, simulated execution latency) are stand-ins
// rather than observations. They are derived with FNV-1a over the
// concatenated key fields so equal keys reproduce equal values across
// restarts and instances.
package synth

import "hash/fnv"

// Sum returns the 64-bit FNV-1a hash of the concatenated parts.
func Sum(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return h.Sum64()
}

// Mod maps the hash of the concatenated parts onto [0, n). n must be
// positive.
func Mod(n int, parts ...string) int {
	return int(Sum(parts...) % uint64(n))
}
