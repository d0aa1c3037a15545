/*
Copyright 2024 Costline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package porecon

import (
	"github.com/costline/porecon/model"
)

// simpleVendorCategory is the vendor category whose lines recognize cost
// straight from goods receipts.
const simpleVendorCategory = "GLD"

// simpleAccountCategories is the account-assignment category set that,
// together with the vendor category, marks a line as Simple.
var simpleAccountCategories = map[string]struct{}{
	"K": {},
	"P": {},
	"S": {},
	"V": {},
}

// Classify maps a PO line to its recognition regime. Lines from the GLD
// vendor category with a K, P, S or V account assignment recognize cost from
// goods receipts alone; everything else follows the GR/IR high-water mark.
// Pure and stateless; a run classifies each line exactly once and both
// calculators see that single answer.
func Classify(line *model.POLine) model.Classification {
	if line.VendorCategory != simpleVendorCategory {
		return model.ClassificationComplex
	}
	if _, ok := simpleAccountCategories[line.AccountAssignmentCategory]; !ok {
		return model.ClassificationComplex
	}
	return model.ClassificationSimple
}
