// Package reconcile computes the next disabled-pane list for each panelock
// operation.
//
// Everything here is pure: functions take the current list and a request and
// return the value the caller should persist. Writing the preference store,
// saving or clearing the snapshot file, and reporting are the engine's job and
// happen only after these computations succeed.
//
// A List is treated as an insertion-ordered set. An empty List and a nil List
// both mean "absent": nothing is disabled and the preference key should be
// deleted rather than written.
package reconcile
