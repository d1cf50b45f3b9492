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

package rag

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/kubechat/kubechat/pkg/intent"
)

// maxEditDistance bounds how far a correction may stray from the typed word.
const maxEditDistance = 2

// Speller corrects query typos against the vocabulary of the indexed corpus.
// Correcting toward corpus words is what matters for retrieval: a word the
// corpus never uses would never match a chunk anyway.
type Speller struct {
	freq map[string]int
}

// NewSpeller builds a speller from corpus texts.
func NewSpeller(texts []string) *Speller {
	freq := make(map[string]int)
	for _, text := range texts {
		for _, w := range tokenize(text) {
			if len(w) >= 3 {
				freq[w]++
			}
		}
	}
	return &Speller{freq: freq}
}

// tokenize folds rather than just lowercases: the corpus is bilingual, and
// "déploiement" and "deploiement" must land on one vocabulary entry.
func tokenize(text string) []string {
	return strings.FieldsFunc(intent.Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Correct returns the closest vocabulary word within the edit-distance
// bound, or word unchanged. Known words, short words, and ties beyond the
// bound pass through untouched.
func (s *Speller) Correct(word string) string {
	lower := intent.Fold(word)
	if len(lower) < 4 || s.freq[lower] > 0 {
		return word
	}

	best := ""
	bestDist := maxEditDistance + 1
	bestFreq := 0
	for candidate, freq := range s.freq {
		d := levenshtein.ComputeDistance(lower, candidate)
		if d < bestDist || (d == bestDist && freq > bestFreq) {
			best = candidate
			bestDist = d
			bestFreq = freq
		}
	}
	if best == "" || bestDist > maxEditDistance {
		return word
	}
	return best
}

// CorrectQuery corrects each word of query independently.
func (s *Speller) CorrectQuery(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = s.Correct(w)
	}
	return strings.Join(words, " ")
}
