// Package credential persists accounts in SQLite through sqlx.
//
// [Store] implements goSession.CredentialStore: lookup by email, lookup by id and
// create. It stores the password hash produced by the Engine's hasher and never
// verifies passwords itself.
//
// Emails are stored exactly as given; the Engine lowercases and trims them before
// any call. A UNIQUE index on email turns a duplicate insert into
// goSession.ErrAccountExists.
package credential
