// Package pattern defines the sparse-code representation used across this
// module: an immutable set of active unit indices drawn from a fixed
// universe, constrained to a sparsity band. It includes set algebra
// (overlap, union size, Jaccard similarity), a 64-bit fingerprint for
// duplicate detection, and a BLOB codec for persistence.
package pattern
