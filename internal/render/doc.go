// Package render binds catalog data into page and index templates.
//
// Templates are plain text with a fixed vocabulary of named slots. Slot values are
// HTML-escaped, optional data renders as an empty string, and {{?slot}} sections
// drop their body when the slot is empty. Tokens outside the vocabulary are copied
// verbatim so templates can carry arbitrary surrounding markup.
package render
