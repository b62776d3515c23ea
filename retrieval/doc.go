// Package retrieval finds the chunks relevant to a query.
//
// MemoryIndex is a small in-process index scoring chunks by the share of
// query terms they contain. It suits tests, demos and corpora that fit in
// memory; production deployments plug a vector store in behind Retriever.
package retrieval
