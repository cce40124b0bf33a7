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

package hostv

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"
)

// TypeID identifies the host type of an interned value.
type TypeID = reflect.Type

// TypeIDOf returns the TypeID for a host value. A nil value has a nil TypeID.
func TypeIDOf(v any) TypeID {
	return reflect.TypeOf(v)
}

// Key is an interned handle to a host value. Two Keys interned through the
// same table compare equal (as pointers) if and only if their values are
// structurally equal. Equality and hashing of keys is therefore by identity.
type Key struct {
	id     uint64
	typeID TypeID
	value  any
}

// ID is the table-unique identity of this key.
func (k *Key) ID() uint64 { return k.id }

// TypeID is the host type of the interned value.
func (k *Key) TypeID() TypeID { return k.typeID }

// Value returns the interned host value.
func (k *Key) Value() any { return k.value }

func (k *Key) String() string {
	if k == nil {
		return "<nil key>"
	}
	return fmt.Sprintf("key#%d<%v>", k.id, k.value)
}

// Interns is the synchronized interning table. Keys are deduplicated by a
// structural hash with a deep-equality chain for collisions.
type Interns struct {
	mu     sync.Mutex
	nextID uint64
	byHash map[uint64][]*Key
}

func NewInterns() *Interns {
	return &Interns{
		byHash: make(map[uint64][]*Key),
	}
}

// KeyFor interns a host value and returns its key. Values must be hashable
// data (no channels or functions reachable from v).
func (t *Interns) KeyFor(v any) (*Key, error) {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot intern value of type %T", v)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, k := range t.byHash[h] {
		if reflect.DeepEqual(k.value, v) {
			return k, nil
		}
	}

	t.nextID++
	k := &Key{
		id:     t.nextID,
		typeID: TypeIDOf(v),
		value:  v,
	}
	t.byHash[h] = append(t.byHash[h], k)
	return k, nil
}

// Len reports how many distinct values have been interned.
func (t *Interns) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, chain := range t.byHash {
		n += len(chain)
	}
	return n
}
