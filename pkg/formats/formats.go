// Package formats provides parsers for asset file formats.
//
// Parsers take the raw file bytes and return plain data; they do not touch
// the GPU. Errors wrap a package sentinel and carry the line or offset of the
// first problem.
package formats
