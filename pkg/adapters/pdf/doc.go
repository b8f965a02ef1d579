// Package pdf extracts per-page text from uploaded slide decks.
package pdf
