// Package validation defines the validation port used by the pipeline.
//
// A Validator returns an Outcome that is either accepted or rejected with the
// full list of violations. Rejection is an ordinary result, not an error.
// Concrete validators live in subpackages (rules, schema) or are supplied by
// the caller; the pipeline only sees this interface.
//
//	v := validation.All(validation.Basic(), rulesValidator)
//	out := v.Validate(ctx, rec)
//	if !out.Accepted() {
//	    for _, viol := range out.Violations {
//	        fmt.Println(viol)
//	    }
//	}
package validation
