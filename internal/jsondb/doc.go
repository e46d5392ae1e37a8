// Package jsondb provides whole-file JSON containers with atomic replacement.
//
// # Overview
//
// A [Container] is a single JSON object file holding one list under a fixed
// key, e.g. {"posts": [...]}. Every mutation rewrites the entire file; there
// are no partial or append-only writes.
//
// # Concurrency
//
// All access to a given path goes through one process-wide mutex, so a
// read-modify-write cycle via [Container.Update] is never interleaved with
// another writer of the same file. Different paths do not contend.
//
// # Durability
//
// Writes go to a temporary file in the same directory which is synced and
// then renamed over the target. A crash leaves either the previous or the new
// file, never a truncated one.
package jsondb
