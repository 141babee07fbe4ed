// Package gate implements the transition admission gate: a fixed-order,
// short-circuiting seven-criterion validator over an immutable transition
// request snapshot. The gate is the only way to construct an approved
// post-transition state; a request that fails any criterion produces a
// classified denial and no state change.
package gate
