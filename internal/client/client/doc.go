// Package client is the HTTP transport to the gate-log service.
//
// # Overview
//
// The Client interface is the contract the services depend on. HTTPClient
// implements it over JSON and multipart requests:
//
//   - every request carries an X-Request-ID and, while a session exists,
//     "Authorization: Bearer <token>" taken from Credentials;
//   - list responses are normalized by Normalize, which accepts both the
//     paged envelope {items,total,page,limit} and a bare array;
//   - HTTP failures are mapped onto a small error taxonomy.
//
// # Error Handling
//
// Network failures and 5xx map to ErrUnavailable, 401 to ErrUnauthorized,
// 403 to ErrForbidden, 404 to ErrNotFound and every other 4xx to a
// *ValidationError carrying the server's message verbatim. Callers match
// with errors.Is / errors.As.
//
// A 401 on a request that used the session token is reported to
// Credentials.Invalidate before the error is returned, so the session is
// cleared exactly as on logout. Nothing else crosses into the session layer.
package client
