/*
Package confluxer generates pronounceable nonsense words from a word list.

A corpus of words is broken into overlapping two-letter fragments, and a
transition model records which fragments follow which. New words are
synthesized by walking that model from a random starting fragment until a
randomly chosen target length is reached, backtracking whenever the walk hits
a fragment with no known successor.

Built models are immutable and can be shared between goroutines. They can be
persisted to SQLite with a Store, exported to JSON, and a Confluxer can be
kept in sync with its source file through a Watcher.
*/
package confluxer
