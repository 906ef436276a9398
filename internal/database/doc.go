// Package database provides the PostgreSQL connection pool used by the postgres
// series store.
//
// The pool is created from config.DBConfig and verified with a ping before use.
package database
