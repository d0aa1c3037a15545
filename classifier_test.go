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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/costline/porecon/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		vendor   string
		account  string
		expected model.Classification
	}{
		{"gld with K", "GLD", "K", model.ClassificationSimple},
		{"gld with P", "GLD", "P", model.ClassificationSimple},
		{"gld with S", "GLD", "S", model.ClassificationSimple},
		{"gld with V", "GLD", "V", model.ClassificationSimple},
		{"gld with unknown account", "GLD", "X", model.ClassificationComplex},
		{"gld with empty account", "GLD", "", model.ClassificationComplex},
		{"other vendor with K", "SRV", "K", model.ClassificationComplex},
		{"empty vendor", "", "K", model.ClassificationComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := &model.POLine{
				POLineID:                  "pol_1",
				VendorCategory:            tt.vendor,
				AccountAssignmentCategory: tt.account,
			}
			assert.Equal(t, tt.expected, Classify(line))
		})
	}
}
