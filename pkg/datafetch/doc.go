// Package datafetch is the JSON data layer used by page controllers: GET with
// bounded exponential backoff, single-attempt POST, and a readable
// loading/error/data state for the last call.
package datafetch
