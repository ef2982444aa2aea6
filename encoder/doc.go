// Package encoder turns raw input into sparse patterns. Encoding is a
// pluggable strategy behind the Encoder interface; two implementations are
// provided: Hash (k-of-N hashing of opaque bytes) and TopK (winner-take-all
// selection over a dense float32 activation vector). Both are deterministic
// for identical input and configuration.
package encoder
