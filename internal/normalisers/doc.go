// Package normalisers maps imported files to the Normaliser that can read
// them. Each sub-package handles one format; Default registers all of them.
package normalisers
