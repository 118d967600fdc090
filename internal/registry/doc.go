// Package registry tracks agent identities for hive sessions.
//
// Multiple independent worker processes coordinate through one JSON document
// on a shared filesystem. Each process registers its session and receives a
// numbered agent slot ("agent_1", "agent_2", ...). Slots are never deleted:
// when an agent goes quiet past the inactivity timeout, a cleanup pass marks
// its slot inactive, and the next new session takes the slot over, keeping
// agent numbers dense and stable.
//
// # Architecture
//
//   - [Store]: persistence boundary for the registry document, with a
//     file-backed implementation ([FileStore]) and an in-memory test double
//     ([MemStore])
//   - [Manager]: lifecycle rules (registration, session reuse, slot reuse,
//     cleanup); every mutation runs inside a cross-process critical section
//     guarded by a lockfile sentinel
//
// Reads do not take the lock: file writes are atomic (temp file + rename),
// so readers always observe a consistent, possibly slightly stale snapshot.
//
// # Basic Usage
//
//	store, err := registry.NewFileStore(path)
//	mgr := registry.NewManager(store)
//
//	res, err := mgr.Initialize(registry.AgentInfo{SessionID: "s1"})
//	// res.Action is one of "reused_existing", "reused_inactive_slot",
//	// "assigned_new_number"
package registry
