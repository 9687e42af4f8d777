// Package utils converts loosely typed driver values into Go values.
//
// Catalog and warehouse drivers disagree on how they surface integers, booleans and
// timestamps, so row accessors go through these helpers.
package utils
