// Package rest is the data-access layer for the admin API. A Client owns
// the session, the read cache and the transport; Resource binds one record
// schema to its /admin/{name} collection and exposes List/Get/Create/
// Update/Delete.
//
// Reads are cached under a per-resource generation counter and coalesced,
// so a burst of identical GETs costs one round trip. Any successful write
// bumps the generation, which both orphans cached reads and prevents a
// slower in-flight read from storing a pre-write response.
//
// Failures map onto RequestError with a small Kind taxonomy. Auth failures
// clear the session and fire Config.OnAuthExpired; nothing is retried
// automatically.
package rest
