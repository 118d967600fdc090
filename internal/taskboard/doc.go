// Package taskboard coordinates task claims between hive agents.
//
// Tasks live in a single JSON document on a shared filesystem, parallel to the
// agent registry. Claiming is a compare-and-set under a cross-process lock:
// a task can be claimed only while pending and only once every declared
// dependency has completed, so at most one agent ever holds a task.
//
// The board's lock is distinct from the registry's and the two are never held
// together.
package taskboard
