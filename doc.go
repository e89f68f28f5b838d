// Package whoknows answers "who knows what" questions about an
// organization. A free-text query is parsed into intent, entities and
// time constraints, retrieved against a Postgres/pgvector store through
// semantic, keyword and graph strategies, and synthesized into a cited
// answer by a language model — with bounded augmentation retries when the
// first pass comes back too thin to answer from.
//
// The Client type at the root ties the pipeline together; pkg/server
// exposes it over HTTP with Server-Sent-Events streaming, and cmd/
// provides the CLI.
package whoknows
