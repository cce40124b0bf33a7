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

	"github.com/skein-build/skein/hostv"
)

// Selector describes a single typed dependency request: a product
// constraint, optionally restricted to a named variant.
type Selector struct {
	Product    hostv.Constraint
	VariantKey string
}

// Select builds a selector with no variant restriction.
func Select(product hostv.Constraint) Selector {
	return Selector{Product: product}
}

// SelectVariant builds a selector restricted to a named variant.
func SelectVariant(product hostv.Constraint, variantKey string) Selector {
	return Selector{Product: product, VariantKey: variantKey}
}

func (s Selector) String() string {
	if s.VariantKey == "" {
		return fmt.Sprintf("Select(%s)", s.Product.Name())
	}
	return fmt.Sprintf("Select(%s, variant=%s)", s.Product.Name(), s.VariantKey)
}
