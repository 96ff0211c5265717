// Package jwt issues and verifies the signed bearer tokens used by goSession.
//
// Two token kinds exist, access and refresh, each signed with its own HMAC secret so a
// leaked access secret cannot mint refresh tokens. Verification is a pure function of the
// token, the configured secrets, and the clock: it never performs I/O and never consults
// the session store. Whether a verified token is still live is decided by the Engine.
package jwt
