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

package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Variant is one named disambiguator.
type Variant struct {
	Key   string
	Value string
}

// Variants is an immutable, ordered mapping of variant names to values.
// It is propagated unchanged along dependency edges.
type Variants struct {
	pairs []Variant
}

// NoVariants is the empty mapping.
var NoVariants = Variants{}

// NewVariants builds a Variants from a map; ordering is canonical (sorted
// by key) so equal maps render and hash identically.
func NewVariants(m map[string]string) Variants {
	if len(m) == 0 {
		return NoVariants
	}
	pairs := make([]Variant, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Variant{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return Variants{pairs: pairs}
}

// Find returns the configured value for a variant key.
func (v Variants) Find(key string) (string, bool) {
	for _, p := range v.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func (v Variants) IsEmpty() bool { return len(v.pairs) == 0 }

func (v Variants) String() string {
	if len(v.pairs) == 0 {
		return "{}"
	}
	parts := make([]string, len(v.pairs))
	for i, p := range v.pairs {
		parts[i] = fmt.Sprintf("%s=%s", p.Key, p.Value)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
