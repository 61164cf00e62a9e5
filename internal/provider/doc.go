// Package provider is the HTTP client for the identity services consumed by
// the session manager: the modern /auth/v2 surface, the legacy /auth surface,
// and the permission-check endpoint.
//
// The package performs no classification policy of its own. Structured
// provider rejections are returned as [*APIError] carrying the status code and
// verbatim message; transport failures are returned wrapped. The public
// package maps both into the error taxonomy.
package provider
