// Copyright (c) 2025, the kubechat authors.
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

package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCluster(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"get pods on cluster prod", "prod"},
		{"get pods in cluster dev-eu_1", "dev-eu_1"},
		{"affiche les pods dans le cluster recette", "recette"},
		{"describe deployment web on staging", "staging"},
		{"get pods", ""},
		{"get pods on prod", "prod"},
		{"what is a container?", ""},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, ExtractCluster(tc.input), tc.input)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "decris", Fold("Décris"))
	assert.Equal(t, "cree", Fold("Crée"))
	assert.Equal(t, "execute", Fold("Exécute"))
	assert.Equal(t, "plain", Fold("plain"))
}
