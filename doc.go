// Package proxypool implements the pool-manager facade (C8): it
// orchestrates sources, validator, executor, store, rotation
// strategy, session manager, and analytics behind a single Engine
// value, exposing fetchProxies, fetchValidatedProxies,
// getNextProxy/getRandomProxy/getLeastRecentlyUsedProxy,
// recordSuccess/recordFailure, and session/analytics accessors.
//
// An Engine is safe for concurrent use: pool and score state is
// guarded by a single internal mutex, matching the linearizability
// contract of selection against add/remove/recordX; the session
// manager, analytics collector and rotation strategies each guard
// their own state with their own lock.
package proxypool
