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

// Package intent extracts lightweight signals from chat input before it
// reaches the language model: the cluster a message names, in English or
// French, and a diacritic-stripping fold for matching accented text. The
// model does the real interpretation work.
package intent

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// clusterIndicators are the phrases that introduce a cluster name. Longer
// phrases are tried first so "on cluster prod" binds to "on cluster", not
// to the bare "on".
var clusterIndicators = []string{
	"sur le cluster", "dans le cluster",
	"on cluster", "in cluster", "for cluster",
	"cluster", "on",
}

var clusterPatterns []*regexp.Regexp

func init() {
	sorted := make([]string, len(clusterIndicators))
	copy(sorted, clusterIndicators)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	clusterPatterns = make([]*regexp.Regexp, len(sorted))
	for i, ind := range sorted {
		clusterPatterns[i] = regexp.MustCompile(
			fmt.Sprintf(`(?i)\b%s\s+([a-zA-Z0-9_-]+)\b`, regexp.QuoteMeta(ind)))
	}
}

var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics, so accented French input matches
// unaccented vocabulary.
func Fold(s string) string {
	folded, _, err := transform.String(diacritics, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// ExtractCluster returns the cluster name the text mentions, or "" when it
// names none.
func ExtractCluster(text string) string {
	for _, pattern := range clusterPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
