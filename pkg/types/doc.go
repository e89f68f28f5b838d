// Package types defines the shared data model for the whoknows retrieval
// pipeline: parsed queries, typed search results, organized result sets,
// data gaps and follow-up requests, citation sources, and chat messages.
//
// Every search strategy produces []SearchResult, the universal currency of
// the pipeline. Result payloads are a tagged union: each concrete entity
// struct implements Payload, and consumers type-switch on Kind() instead of
// probing optional fields.
package types
