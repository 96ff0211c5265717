// Package rate throttles failed logins with Redis fixed-window counters.
//
// # Window semantics
//
// INCR on each failure, EXPIRE on the first failure of a window. Keys:
//   - rl:login:email:<email> for the account identifier
//   - rl:login:ip:<ip> for the client address, when IP throttling is on
//
// A configured prefix is prepended as "<prefix>:".
//
// # What this package must NOT do
//
//   - Decide what counts as a failure. The Engine calls IncrementLogin.
//   - Be imported outside the goSession module.
package rate
