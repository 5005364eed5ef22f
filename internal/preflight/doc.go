// Package preflight provides readiness checks for the external services and
// filesystem paths the processing pipeline depends on.
//
// These checks run in two contexts:
//   - The process command calls RunAll before starting pipeline work, so a
//     missing API key or unwritable directory fails fast instead of mid-run.
//   - The CLI "dutchlearn status" command uses individual check functions to
//     display service health.
package preflight
