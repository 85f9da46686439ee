// Package transport turns sockets and serial ports into duplex byte devices.
//
// Ownership boundary:
// - Device: blocking ReadBytes/WriteBytes, fewer bytes than requested means failure
// - Provider: one attempt per call to acquire a ready Device
// - concrete providers for TCP accept, TCP connect, UDP and serial ports
//
// Every Device handed out must tolerate one goroutine reading while another writes.
package transport
