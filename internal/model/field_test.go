package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldZeroValueIsUnset(t *testing.T) {
	var f Field
	assert.False(t, f.Set())
	assert.Equal(t, "", f.Value())
	assert.Equal(t, "N/A", f.String())
	assert.Equal(t, "fallback", f.Or("fallback"))
}

func TestFieldSetDistinctFromEmpty(t *testing.T) {
	f := NewField("")
	assert.True(t, f.Set())
	assert.Equal(t, "", f.Value())
	assert.Equal(t, "", f.Or("fallback"))
}

func TestFieldJSONRoundTrip(t *testing.T) {
	type doc struct {
		Email Field `json:"email"`
		Phone Field `json:"phone"`
	}

	in := doc{Email: NewField("a@b.com")}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.com","phone":null}`, string(data))

	var out doc
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Email.Set())
	assert.Equal(t, "a@b.com", out.Email.Value())
	assert.False(t, out.Phone.Set())
}
