// Copyright 2024 The Quadkit Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package decompressor sniffs a bulk-load file's leading bytes and wraps it
// in the matching decompressing reader, so `quadkit load` accepts gzip- or
// bzip2-compressed quad files the same way it accepts raw ones.
package decompressor

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
)

const (
	gzipMagic  = "\x1f\x8b"
	bzip2Magic = "BZh"
)

// New peeks at r's leading bytes and returns a reader that transparently
// decompresses gzip or bzip2 input, or r itself (buffered) otherwise.
func New(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	buf, err := br.Peek(3)
	if err != nil {
		if err == io.EOF {
			return br, nil
		}
		return nil, err
	}
	switch {
	case bytes.Equal(buf[:2], []byte(gzipMagic)):
		return gzip.NewReader(br)
	case bytes.Equal(buf[:3], []byte(bzip2Magic)):
		return bzip2.NewReader(br), nil
	default:
		return br, nil
	}
}
