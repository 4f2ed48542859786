// Package emitter converts runtime lifecycle points into outbound
// event signals and fans them out to subscribers without ever
// blocking the Executor loop that produced them.
//
// Invariants:
// - Delivery to a given subscriber is ordered.
// - A slow or dead subscriber cannot stall Emit; excess events for
//   that subscriber are dropped (with a logged warning) once its
//   buffer is full.
package emitter
