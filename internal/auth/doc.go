// Package auth holds the credential primitives of the identity core: the
// PBKDF2 password hasher and the signed bearer-token service. Neither type
// touches storage; both take their secrets and parameters at construction.
package auth
