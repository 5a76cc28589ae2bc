// Package core defines the contracts shared by all embedding file formats.
//
// An EmbFile is an open embedding file: it knows its vocabulary size, vector
// size and element type, and hands out forward-only Readers and word-matching
// Loaders. Format packages (formats/txt, formats/word2vec, formats/vvm)
// implement these interfaces and describe themselves with a Format value that
// the root package registers by id and file extension.
//
// Readers yield one (word, vector) entry per call and own their byte stream
// exclusively; loaders own the reader (or random-access index handle) they
// drive and release it on every exit path.
package core
