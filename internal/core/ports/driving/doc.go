// Package driving defines the inbound ports of the core: the
// interfaces driving adapters (HTTP, CLI) call into.
package driving
