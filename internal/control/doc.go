// Package control provides automatic rod controllers for the plant.
//
// Controllers implement the [Controller] interface to pick a rod motion
// command from the observed state:
//
//   - [PowerAscension]: rate-limited power escalation to a target
//   - [None]: passthrough controller (no rod motion)
//
// The session applies at most one command per tick, so controllers hold
// no state about the drive mechanisms themselves.
package control
