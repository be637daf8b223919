// Package service implements the use cases of the project planning application on top of a [planning.Store],
// an [auth.TokenIssuer] and a Bonita client.
package service
