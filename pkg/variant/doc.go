// Package variant defines the tagged values that flow through the computation
// registry and the results computed from them.
//
// A Variant is identified by its Tag and carries named numeric fields and an
// optional point list. Variants are immutable once constructed: New copies
// its inputs and every accessor returns a copy.
//
// The wire form is flat so records read naturally in YAML and JSON:
//
//	variant:
//	  tag: rectangle
//	  length: 3
//	  height: 4
//
//	variant:
//	  tag: polygon
//	  points:
//	    - {x: 0, y: 0}
//	    - {x: 4, y: 0}
//	    - {x: 4, y: 3}
package variant
