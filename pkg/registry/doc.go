// Package registry provides the computation registry: a table from variant
// tags to pure computation functions.
//
// Dispatch is a table lookup, so supporting a new kind of variant is one
// Register call and touches no existing code path.
//
// # Lifecycle
//
// A Registry starts mutable. Callers register computations during
// initialization and then call Freeze, after which the table is read-only and
// Compute performs no locking:
//
//	reg := registry.New()
//	reg.MustRegister("rectangle", func(v variant.Variant) (variant.Result, error) {
//	    l, _ := v.Field("length")
//	    h, _ := v.Field("height")
//	    return variant.Result{Value: l * h, Unit: "area"}, nil
//	})
//	reg.Freeze()
//
//	res, err := reg.Compute(variant.New("rectangle", map[string]float64{"length": 3, "height": 4}))
//	// res.Value == 12, res.Tag == "rectangle"
//
// Freeze is one-way. There is no way to reopen a frozen registry.
//
// # Error Handling
//
//   - DUPLICATE_TAG: Register called for a tag that is already registered
//   - REGISTRY_FROZEN: Register or Replace called after Freeze
//   - UNSUPPORTED_VARIANT: Compute called for a tag with no registration
//
// Registration errors indicate wiring bugs and should stop startup;
// MustRegister panics on them.
//
// Replace is the explicit path for changing an existing registration before
// Freeze. Register never overwrites.
package registry
