// Copyright 2019 The openmotion authors. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package epos

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStuff(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload []byte
		frame   []byte
	}{
		{
			name:    "empty",
			payload: []byte{},
			frame:   []byte{DLE, STX},
		},
		{
			name:    "plain",
			payload: []byte{0x60, 0x02, 0x00, 0x41},
			frame:   []byte{DLE, STX, 0x60, 0x02, 0x00, 0x41},
		},
		{
			name:    "single DLE",
			payload: []byte{DLE},
			frame:   []byte{DLE, STX, DLE, DLE},
		},
		{
			name:    "DLE between data",
			payload: []byte{0x01, DLE, 0x02},
			frame:   []byte{DLE, STX, 0x01, DLE, DLE, 0x02},
		},
		{
			name:    "adjacent DLEs",
			payload: []byte{DLE, DLE},
			frame:   []byte{DLE, STX, DLE, DLE, DLE, DLE},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.frame, stuff(tc.payload))
		})
	}
}

func TestUnstuff(t *testing.T) {
	payload, err := unstuff([]byte{DLE, STX, 0x01, DLE, DLE, 0x02})
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x01, DLE, 0x02}, payload)

	// A bare preamble unstuffs to an empty payload; the packager rejects
	// it later as too short.
	payload, err = unstuff([]byte{DLE, STX})
	assert.NoError(t, err)
	assert.Empty(t, payload)
}

func TestUnstuffMalformed(t *testing.T) {
	for _, tc := range []struct {
		name  string
		frame []byte
	}{
		{
			name:  "empty",
			frame: []byte{},
		},
		{
			name:  "preamble only DLE",
			frame: []byte{DLE},
		},
		{
			name:  "missing STX",
			frame: []byte{DLE, 0x01, 0x02},
		},
		{
			name:  "swapped preamble",
			frame: []byte{STX, DLE, 0x01},
		},
		{
			name:  "lone DLE between data",
			frame: []byte{DLE, STX, 0x01, DLE, 0x02},
		},
		{
			name:  "trailing lone DLE",
			frame: []byte{DLE, STX, 0x01, DLE},
		},
		{
			name:  "tripled DLE",
			frame: []byte{DLE, STX, 0x01, DLE, DLE, DLE, 0x02},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := unstuff(tc.frame)

			var framingError *FramingError
			assert.Error(t, err)
			assert.True(t, errors.As(err, &framingError), "expected FramingError, got %T", err)
		})
	}
}
