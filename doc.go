// Package authcore is the authentication and session-security core of
// the Statroom backend. It verifies credentials, issues and validates
// the cooperating session/anti-forgery/refresh token triple, runs the
// one-time-code workflows for registration, two-factor login, and
// anonymous password reset, reconciles OAuth identities to local
// accounts, and supports immediate revocation through a TTL-bounded
// denylist.
//
// The engine is constructed through the Builder with explicitly
// injected collaborators (Redis client, credential store, mailer,
// logger). It holds no global state and every exported method is safe
// for concurrent use.
//
// Session model: the server persists no sessions. A successful
// authentication event mints one random correlator embedded in two
// independently signed tokens. The session token travels as an
// httpOnly cookie, the anti-forgery token is returned in the response
// body and replayed by the client in the X-Xsrf-Token header. A request
// is authentic only when both verify and their correlators match
// (double-submit verification), which same-site cookie theft alone
// cannot satisfy. Logout writes both cookie values to the revocation
// ledger, closing the window for all subsequent requests.
package authcore
