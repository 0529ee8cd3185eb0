// Package ingest chunks documents, embeds the chunks concurrently and
// persists the resulting index.
package ingest
