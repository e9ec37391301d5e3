// Package mock provides test doubles for the ai package interfaces.
//
// The mocks default to deterministic behavior (FNV-hash vectors, canned
// completions) so tests stay reproducible without external AI services, and
// expose function fields for injecting failures or custom responses.
package mock
