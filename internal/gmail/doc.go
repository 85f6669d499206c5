// Package gmail provides a thin client for sending mail through the
// Gmail API: a connector that turns a valid OAuth token into a service
// handle, a message builder that assembles a multipart RFC 5322 message
// into the base64url envelope the API expects, and the send call itself.
//
// The API call sits behind a small interface so the send path is
// testable with a stub instead of a live service.
package gmail
