// Package types defines the castlist and tribe entities, the workspace
// aggregate, the collaborator interfaces (document store, season registry,
// group source), and the standard errors shared by every castlist package.
// See DESIGN.md for how the packages fit together.
package types
