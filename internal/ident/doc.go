// Package ident generates monotonic, sortable 128-bit identifiers used
// as deploy IDs and node-observation markers throughout nopea: a 48-bit
// millisecond timestamp followed by an 80-bit random tail, textualized
// as a 26-character Crockford Base32 string (the ULID encoding). Within
// a single process the emitted sequence is strictly increasing even
// across calls landing in the same millisecond, by incrementing the
// random tail instead of redrawing it.
package ident
