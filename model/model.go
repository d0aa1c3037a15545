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

package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateUUIDWithSuffix generates a UUID prefixed with a short module name,
// e.g. "run_9a1f...". Useful for tracing ids across logs and tables.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// MoneyFromQty multiplies a quantity by a unit price and rounds to two
// decimal places, matching the precision the derived tables are stored at.
// Going through decimal avoids the float drift a chain of float64 multiplies
// would accumulate over long posting histories.
func MoneyFromQty(qty, unitPrice float64) float64 {
	m := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(unitPrice))
	return m.Round(2).InexactFloat64()
}
