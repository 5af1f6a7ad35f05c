// Package dupecodec decodes the tagged binary object graph carried in the
// payload of a dupe file.
//
// A payload is a single value. Every value starts with a tag byte; tables and
// lists are open-ended and stop at a terminator value instead of carrying a
// length. Each table or list takes the next reference number when it begins,
// and tag 247 refers back to an earlier (possibly still open) container by
// that number, which is how shared and cyclic structure is expressed.
//
// Revisions 4 and 5 use the same tag table except for string encoding, the
// null tag and the terminator rule; these differences live in Grammar.
//
//	root, err := dupecodec.Decode(payload, dupecodec.GrammarV5)
package dupecodec
