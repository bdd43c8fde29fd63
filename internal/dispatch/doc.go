// Package dispatch maps completed inbound protocol messages to
// capability provider calls and produces the response text. Provider
// faults never escape the dispatcher; they degrade to an empty
// response, which the peer reads as "unsupported/unavailable".
package dispatch
