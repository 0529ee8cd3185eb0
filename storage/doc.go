// Package storage defines the persistence contracts for retrieval indexes
// and the binary serialization of documents and embedding vectors.
package storage
