// Package schema defines the documents and chunks that flow through
// retrieval-augmented pipelines.
package schema
