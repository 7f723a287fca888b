// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

// Client declares the functionality of a drive client regardless of the underlying transport stream.
type Client interface {
	// Raw access

	// ReadObject reads a single object dictionary entry addressed by index
	// and subindex and returns its value extended to int64 per enc.
	ReadObject(index uint16, subindex byte, enc Encoding) (value int64, err error)
	// WriteObject writes a single object dictionary entry addressed by
	// index and subindex. The firmware expects the value as a 4-byte
	// signed field no matter how wide the object is, so that is what goes
	// on the wire.
	WriteObject(index uint16, subindex byte, value int64) (err error)

	// Dictionary access

	// Read reads a named dictionary object.
	Read(obj Object) (value int64, err error)
	// Write writes a named dictionary object.
	Write(obj Object, value int64) (err error)
	// ReadName resolves name in the object dictionary and reads the entry.
	ReadName(name string) (value int64, err error)
	// WriteName resolves name in the object dictionary and writes the entry.
	WriteName(name string, value int64) (err error)
}
