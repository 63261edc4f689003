// Package services implements the Transfer Client for the remote pose-analysis API.
//
// # Client
//
// [Client] wraps two [http.Client] values: an authenticated one whose transport is an [oauth2.Transport]
// attaching "Authorization: Bearer <token>" from the session, and a plain one for the auth endpoints.
//
// The token is read once per request. When no credential is present the call is still made and the remote
// side rejects it.
//
// # Error Handling
//
// Every failure is a [*TransferError] carrying the server's detail when the body has one:
//   - transport failures
//   - non-success statuses
//   - malformed bodies
//   - local files that can't be opened for upload
//
// Login and sign-up failures are wrapped in [*AuthError]. [DetailOf] extracts the user-facing message, falling
// back to [UnknownDetail].
//
// # Endpoints
//
//   - POST /auth/login/, POST /auth/signup/ (unauthenticated)
//   - GET /files/, GET /videoFiles/
//   - GET /files/{id}, GET /stream_video/{id} (binary)
//   - POST /process3toDB/ (multipart: file parts + mode)
package services
