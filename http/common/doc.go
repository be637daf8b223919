// Package common provides types and constants, shared by HTTP server and client.
package common
