// Copyright 2025 Skein Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"fmt"

	godigest "github.com/opencontainers/go-digest"
)

// Digest identifies content in the store: a hex sha256 fingerprint plus
// the byte length of the identified content.
type Digest struct {
	Fingerprint string
	SizeBytes   int64
}

// DigestOf fingerprints a byte slice with the canonical algorithm.
func DigestOf(b []byte) Digest {
	return Digest{
		Fingerprint: godigest.Canonical.FromBytes(b).Encoded(),
		SizeBytes:   int64(len(b)),
	}
}

func (d Digest) String() string {
	return fmt.Sprintf("%s/%d", d.Fingerprint, d.SizeBytes)
}

// IsZero reports whether the digest is the zero value (not the digest of
// empty content, which has a real fingerprint).
func (d Digest) IsZero() bool {
	return d.Fingerprint == "" && d.SizeBytes == 0
}
