// Package storage defines persistence contracts for story state: narrative
// events, promises, voice profiles, audio scenes and recording packets.
//
// Canon events are write-once. Implementations must refuse to overwrite a
// stored canon event and must run WithTx callbacks in a transaction that
// serializes concurrent writers, so a canon gate evaluated inside the
// transaction sees the state it commits against.
package storage
