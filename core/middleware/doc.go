// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation protecting the sync endpoints.
//   - rayid: a unique Request ID (RayID) for every incoming request,
//     stored in the context and echoed in the response headers.
//
// RayID must be registered first so that every later log line carries it.
package middleware
