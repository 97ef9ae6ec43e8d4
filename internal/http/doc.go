// Package http provides HTTP handlers and middleware for the room booking API.
//
// The router exposes the following endpoints. JSON field names follow the
// booking client contract (camelCase).
//   - POST /api/login: body {"email","password"}. Responds with
//     {"ok":true,"token","expiresAt","user"} and sets a `session_token` cookie.
//   - POST /api/logout: revokes the session carried by the Authorization
//     header or cookie.
//   - GET /api/rooms: room catalog. Any of date, start, end, attendees,
//     equipment, or floor turns it into an availability search, which needs
//     date, start, and end; a partial filter is INVALID.
//   - POST /api/rooms, DELETE /api/rooms/{id}: administrator catalog management.
//   - GET /api/reservations?date=YYYY-MM-DD: the day's reservations.
//   - POST /api/reservations: books a room. 201 {"ok":true,"reservation"},
//     400 {"ok":false,"code":"INVALID"}, 409 {"ok":false,"code":"CONFLICT",
//     "conflicts","alternatives":{"slots","rooms"}}.
//   - DELETE /api/reservations/{id}: cancels a reservation owned by the caller.
//   - GET /api/my-reservations: the caller's reservations.
//   - GET /api/alternatives?roomId=&date=&start=&end=&attendees=&equipment=:
//     the recovery menu for a window.
//   - GET /api/users, POST /api/users: administrator account management.
//   - GET /healthz, GET /readyz: liveness and dependency readiness.
//
// Error responses share the envelope {"ok":false,"code","message","errors"}
// with codes INVALID, UNAUTHORIZED, FORBIDDEN, NOT_FOUND, CONFLICT,
// ALREADY_EXISTS, STATE_CONFLICT, RATE_LIMITED, and INTERNAL. CONFLICT is
// only used for overlapping bookings; a duplicate email is ALREADY_EXISTS and
// deleting a room that still has bookings is STATE_CONFLICT.
package http
