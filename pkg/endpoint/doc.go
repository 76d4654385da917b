// Package endpoint defines the vocabulary shared by all routebind
// packages: the Build descriptor for a single logical endpoint, the
// per-request Context, handler and middleware contracts, parameter
// schemas for path templates, and the normalized Error representation.
package endpoint
