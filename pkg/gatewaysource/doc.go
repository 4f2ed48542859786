// Package gatewaysource is the third pure Signal producer named in
// §4.9: a WebSocket endpoint accepting JSON-RPC-shaped requests,
// adapted from the teacher's pkg/gateway server. It keeps the
// teacher's challenge-response HMAC authentication handshake but drops
// the RPC method router, event broadcaster, and session/memory wiring
// — once a client is authenticated, every request it sends is turned
// into a cmd.* signal and handed to a host-supplied Produce callback
// rather than dispatched to a named RPC method.
package gatewaysource
