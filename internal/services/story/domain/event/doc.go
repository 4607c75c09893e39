// Package event defines narrative events and the canon workflow that governs
// them.
//
// An event is one discrete story beat: who was there, what it depends on,
// what it changed, and what each character learned. Events start as drafts,
// move forward one step at a time toward canon, and are frozen once canon.
// Corrections to canon are new events that supersede the original.
//
// Every operation returns a new value; callers own persistence.
package event
