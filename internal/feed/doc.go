// Package feed carries Final Frame packets over UDP.
//
// A datagram holds one or more whole frames. Listener decodes each datagram
// with a single frame.Reader and stops at the first dropped frame in a
// datagram; the next datagram starts clean. Sender writes one datagram per
// call.
package feed
