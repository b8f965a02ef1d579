// Package schema validates agent outputs against the seven fixed agent
// record shapes and substitutes defaults when an output does not conform.
package schema
