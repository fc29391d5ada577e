// Package events implements a name-keyed event bus with persistent and
// one-shot subscribers, suffix wildcard patterns ("prefix.*" and "*"), and
// timed waits for the next matching event.
//
// Handlers run synchronously on the dispatching goroutine, over a snapshot of
// the subscriber tables taken before the first call: handlers that register
// or remove peers during a dispatch do not affect the current round. A panic
// in one handler is recovered and logged and does not abort its siblings.
package events
