// Package driven defines the outbound ports of the core: interfaces
// the core depends on, implemented by adapters (storage, OAuth
// provider, mail provider, rate limiting, classification).
package driven
