// Package platform abstracts the host-specific details of launching the
// proxy binary: PATH-list separators, executable name suffixes, and shell
// wrapping. All variants are plain values compiled on every operating
// system so that cross-platform behavior stays unit-testable; Current
// selects the variant for the running OS once, at Server construction.
package platform
