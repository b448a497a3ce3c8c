// Package render draws recognition results onto a copy of the source image.
//
// Every processed region gets a rectangle outline; regions that produced a
// plate also get the plate text drawn just above the box. Colors are given as
// hex strings such as "#0000FF".
package render
