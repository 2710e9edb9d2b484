// Package common contains shared constants and sentinel errors used across
// tact0 components.
package common

// SessionCookieName is the name of the HttpOnly cookie carrying the session
// token between the browser and the server.
const SessionCookieName = "tact0_auth"

// ConversationPrefix is prepended to an account id to build the engine
// conversation identifier.
const ConversationPrefix = "u-"
