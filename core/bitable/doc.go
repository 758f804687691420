// Package bitable is a client for the Feishu/Lark bitable open API.
//
// It covers the calls a table sync needs: field listing and creation,
// record listing, and single and batch record writes. Every call goes
// through Client.Execute, which attaches a tenant access token, decodes the
// {code, msg, data} envelope and retries transient failures.
//
// # Tokens
//
// TokenManager caches the tenant access token until 60 seconds before the
// server-reported expiry. Concurrent callers share a single refresh.
//
// # Retries
//
// Retrier is the only retry loop in the package. It retries HTTP 429, 5xx,
// transport failures and the envelope codes configured as transient, waiting
// 1s, 2s, 4s ... (capped at 60s) between attempts. HTTP 404 and other
// non-zero codes fail immediately with EndpointNotFoundError or APIError.
// When every attempt fails, Do returns RetryExhaustedError.
//
// # Values
//
// Record cells are FieldValue, a closed union of text, number, datetime and
// string list. String gives the normalized form used for comparisons.
package bitable
