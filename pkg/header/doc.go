// Package header provides the header container shared by synthetic requests
// and responses.
//
// Lookups and writes are case-insensitive, every name may carry several
// values, and names keep the order in which they were first registered:
//
//	h := header.New()
//	h.Set("Content-Type", "application/json")
//	h.Add("Accept", "text/html")
//	h.Add("accept", "application/json")
//
//	h.Get("content-type")  // "application/json", true
//	h.Values("ACCEPT")     // ["text/html", "application/json"]
//	h.Names()              // ["Content-Type", "Accept"]
//
// Absence is never an error: Get reports false and Values returns an empty
// slice.
package header
