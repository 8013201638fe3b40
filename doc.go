// Package mailgate provides a two-step authentication engine with Argon2id
// credential verification, an email-delivered one-time-code second factor,
// Redis-backed attempt throttling, and a k-anonymity breach-exposure check
// against an external compromised-credential range API.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// mailgate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (LoginChallenge, AuthResult, BreachStatus, etc.). All
// internal coordination (credential and pending-code storage, rate limiting,
// audit dispatch) lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//   - Return or log a stored password hash under any code path.
//   - Treat a failed breach-range lookup as a clean result.
//   - Hold a lock across both the credential store and the pending-attempt
//     store (they are lock-independent by construction; all keyed mutation
//     happens in single Redis commands or scripts).
//
// # Authentication state machine
//
// Anonymous → PasswordVerified → Authenticated. [Engine.Login] moves a
// session context from Anonymous to PasswordVerified and emails a one-time
// code. [Engine.VerifyLogin] consumes the pending code exactly once: match
// or mismatch, the pending attempt is destroyed, so a failed verification
// forces a fresh login. [Engine.Logout] returns to Anonymous.
package mailgate
