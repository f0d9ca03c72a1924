// Package html provides a normaliser for imported HTML pages.
package html
