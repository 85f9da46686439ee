// Package protocol owns the fixed-size typed message contract.
//
// Ownership boundary:
// - message wire layout [head][type][data...][tail]
// - checked payload encode/decode
// - window verifiers used by the framing buffer
package protocol
