// Package session composes pumps into a serving relay.
//
// A Server acquires devices from a transport.Provider and hands each one to
// an Orchestrator, which runs a reader pump (device to inbox) and a writer
// pump (outbox to device) until either side stops. Whichever side stops
// first interrupts the other, so a half-broken device never lingers.
//
// Link wires the pieces together for applications that only want
// mailboxes: construct it with NewLink, Run it on its own goroutine and
// exchange messages through Receive and Send.
package session
