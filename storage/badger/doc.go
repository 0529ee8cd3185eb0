// Package badger implements index persistence on BadgerDB.
package badger
