// Package embeddings provides embedding generation via multiple providers.
//
// Supports FastEmbed (local ONNX, all-MiniLM-L6-v2 by default), TEI
// (text-embeddings-inference over HTTP, with retries) and a deterministic
// hash embedder that needs no model. NewProvider selects one at runtime.
package embeddings
