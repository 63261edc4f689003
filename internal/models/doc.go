// Package models defines the wire schemas exchanged with the remote analysis API and the client-side selection types.
//
// Responses are decoded into these types at the Transfer Client boundary, so the rest of the client never handles
// loosely-typed JSON:
//   - [RemoteFileRecord] : one processed upload as listed by GET /files/
//   - [VideoRecord] : one streamable video as listed by GET /videoFiles/
//   - [ResourceID] : opaque id of a binary payload; accepts JSON strings, numbers and null
//   - [AuthResponse], [SignupResponse] : auth endpoint bodies
//   - [UploadAck] : acknowledgement returned by POST /process3toDB/
//
// [SelectedFile] is the only type created locally; it represents a file the user picked for upload.
package models
