// Package memory provides an in-process store.Store.
package memory
