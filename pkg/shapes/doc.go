// Package shapes holds the built-in computations: geometric areas for
// rectangle, square, circle, triangle and polygon variants, and the total of
// an expense variant.
//
// Each computation is a pure registry.Computation. RegisterAll wires them all
// into a registry:
//
//	reg := registry.New()
//	if err := shapes.RegisterAll(reg); err != nil {
//	    return err
//	}
//	reg.Freeze()
//
// Missing or out-of-range fields fail with INVALID_REQUEST and name
// the offending field in the error context.
package shapes
