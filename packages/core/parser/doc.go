// Package parser decodes Restfile documents.
//
// A Restfile is YAML with these top-level keys:
//   - variables: name to value, expanded once per run in declaration order
//   - requests: named requests, executed in declaration order
//   - set_up (or setup): requests run once before the first iteration
//   - restfiles: nested documents, loaded relative to the including file
//   - mode: sequential (default) or random
//
// Decoding goes through yaml.Node so the order of mapping keys survives.
// Requests are kept as an ordered list with a name index on top.
package parser
