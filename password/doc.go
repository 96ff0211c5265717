// Package password hashes and verifies account passwords with argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Every hash carries its own random salt and cost parameters, so [Argon2.Verify]
// keeps working after the configured cost is raised. [Argon2.NeedsUpgrade] reports
// hashes produced with weaker parameters.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and persist the hash.
//   - Import any other goSession package.
//   - Log plaintext passwords.
package password
