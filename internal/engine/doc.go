// Package engine contains the night simulation: energy accounting, adversary
// movement, threat resolution and the win/loss state machine.
// This is the heartbeat of "Veille Électrique".
//
// ARCHITECTURAL RULE: The Engine performs no I/O and never reads the wall
// clock. It reports what happened through its Emitter; the session layer
// stamps and persists those events.
package engine
