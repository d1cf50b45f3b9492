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

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubechat/kubechat/pkg/errors"
)

func TestGenerateAndVerify(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	token, err := m.GenerateToken("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	issued := time.Now().Add(-48 * time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.GenerateToken("alice")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyToken(token)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnauthorized, errors.CodeOf(err))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m1, err := NewManager("secret-one")
	require.NoError(t, err)
	m2, err := NewManager("secret-two")
	require.NoError(t, err)

	token, err := m1.GenerateToken("alice")
	require.NoError(t, err)

	_, err = m2.VerifyToken(token)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnauthorized, errors.CodeOf(err))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.VerifyToken(tok)
		require.Error(t, err, tok)
		assert.Equal(t, errors.ErrCodeUnauthorized, errors.CodeOf(err))
	}
}

func TestGenerateRequiresUserID(t *testing.T) {
	m, err := NewManager("test-secret")
	require.NoError(t, err)

	_, err = m.GenerateToken("")
	require.Error(t, err)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("")
	require.Error(t, err)
}

func TestFromHeader(t *testing.T) {
	assert.Equal(t, "abc", FromHeader("Bearer abc"))
	assert.Equal(t, "abc", FromHeader("abc"))
	assert.Equal(t, "abc", FromHeader("  Bearer abc  "))
	assert.Equal(t, "", FromHeader(""))
}
