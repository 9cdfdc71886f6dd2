// Package secret resolves store credentials from configuration values.
//
// A value may be:
//   - a literal:            hunter2
//   - an env reference:     ${REDIS_PASSWORD}
//   - a secret reference:   secretref:file:redis-password
//   - a mix of the above:   ${REDIS_USER_PREFIX}-reader
//
// References use the prefix "secretref:<provider>:<ref>". Two providers ship
// with the package: "env" (ref is a variable name) and "file" (ref is a path,
// relative to a base directory such as /run/secrets).
//
// Only the ${VAR} form is expanded so that literal passwords containing '$'
// survive; "$$" still yields a literal '$'.
package secret
