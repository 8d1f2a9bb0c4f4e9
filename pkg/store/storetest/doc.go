// Package storetest holds the contract suite every store.Store adapter runs.
//
//	func TestContract(t *testing.T) {
//	    storetest.Run(t, func(t *testing.T) store.Store { return memory.New() })
//	}
package storetest
