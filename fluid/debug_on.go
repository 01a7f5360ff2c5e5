//go:build fluiddebug

package fluid

// debugChecks turns invariant violations into panics.
const debugChecks = true
