// Package tauq implements TQN (Tauq Notation), a text data-serialization
// format that represents the same information as JSON while omitting
// repeated field names by declaring row schemas once and streaming
// value-only rows afterward.
//
// # Data Model
//
// Scalars: null, bool, integer, float, string
// Containers: array, object
//
// # TQN Syntax
//
//	!def User id name role
//	---
//	users [
//	  !use User
//	  1 Alice admin
//	  2 Bob user
//	]
//	settings { timeout 30 }
//
// A `!def` declares a named, ordered field list and activates it; a `!use`
// activates a previously defined schema; a bare `---` clears the active
// schema at the current scope. While a schema is active, each logical line
// supplies exactly as many values as the schema has fields, in order.
//
// # Minified Form
//
//	!def U id name; 1 Alice; 2 Bob
//
// `;` separates records on a single physical line.
//
// # Error Handling
//
// Every parse failure is fatal and typed (see Error, ErrorKind); there is
// no tolerant or best-effort mode. Use ParseToValue, ParseToJSONText, Emit,
// Minify, and StreamRecords as the package's entry points; package tqq
// preprocesses TQQ text into TQN before it reaches ParseToValue.
package tauq
