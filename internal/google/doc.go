// Package google manages OAuth2 credentials and tokens for the Gmail API.
//
// The Manager implements the token lifecycle: load the cached token from
// disk, refresh it when it has expired but is refreshable, or run the
// interactive authorization flow when no usable token exists. Any change
// is persisted back to the token file so subsequent runs skip the flow.
//
// Refresh and authorization are injectable, so the lifecycle logic is
// testable without a live network dependency.
package google
