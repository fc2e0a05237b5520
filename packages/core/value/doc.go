// Package value implements the tagged value model used throughout rester.
//
// A Value is null, bool, int, double, string, array or dictionary.
// Dictionaries keep insertion order, equality is strict (no coercion
// between kinds) and every tree can be addressed with a KeyPath such as
// `json.items[-1].id` or the legacy `json.items.-1.id`.
//
// Values are built from decoded documents (FromYAML), response bodies
// (FromJSON) or plain Go values (From).
package value
