// Package events provides the named-event registration table forms use to
// notify listeners. Handlers are closures stored per event name in
// subscription order; publishing snapshots that list before dispatching so
// reentrant subscribe/unsubscribe calls never disturb a delivery in flight.
package events
