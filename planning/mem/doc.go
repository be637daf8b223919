// Package mem provides an in-memory [planning.Store], which is used when no database is configured.
package mem
