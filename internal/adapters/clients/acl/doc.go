// Package acl is the anti-corruption layer between upstream HTTP APIs and the
// domain. Adapters here own the upstream wire format: external DTOs stay
// unexported, transport failures become domain errors, and only domain types
// (or untyped raw records destined for sanitation) leave the package.
//
// Error translation:
//   - 404 Not Found            -> [domain.ErrNotFound]
//   - 409 Conflict             -> [domain.ErrConflict]
//   - 400/422                  -> [domain.ErrValidation]
//   - 401/403/429/5xx/network  -> [domain.ErrUnavailable]
//
// Client-level failures ([clients.ErrCircuitOpen], [clients.ErrMaxRetriesExceeded])
// are reported as [domain.ErrUnavailable] as well.
package acl
