// Package directoryfakes provides an in-memory participant directory used by
// launch week handler and service tests.
//
// The fake mirrors the storage contract closely enough for web-level tests
// without opening a sqlite database.
package directoryfakes
