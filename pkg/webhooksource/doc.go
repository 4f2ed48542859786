// Package webhooksource is the second pure Signal producer named in
// §4.9: a signed-HTTP-callback receiver that turns an inbound webhook
// POST into a cmd.* signal, adapted from the teacher's pkg/webhook
// server. It keeps the teacher's HMAC signature verification and
// per-IP sliding-window rate limiting verbatim in spirit, but drops
// the teacher's per-path handler registry, response-shaping, and
// on-disk webhook config persistence — those concerns belong to the
// host wiring an Endpoint's Produce callback to Server.ProcessSignal.
package webhooksource
