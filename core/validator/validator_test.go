package validator_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lambdakit/core/validator"
)

const userSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 2},
		"age": {"type": "integer", "minimum": 0}
	}
}`

func TestSchema_Validate(t *testing.T) {
	t.Parallel()

	s, err := validator.Compile("user", []byte(userSchema))
	require.NoError(t, err)
	assert.Equal(t, "user", s.Name())

	tests := []struct {
		name    string
		payload any
		wantErr bool
	}{
		{"decoded map", map[string]any{"name": "ann", "age": float64(3)}, false},
		{"go ints", map[string]any{"name": "ann", "age": 3}, false},
		{"struct", struct {
			Name string `json:"name"`
		}{Name: "bob"}, false},
		{"missing required", map[string]any{"age": 1}, true},
		{"too short", map[string]any{"name": "a"}, true},
		{"wrong type", map[string]any{"name": "ann", "age": "old"}, true},
		{"nil payload", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := s.Validate(tt.payload)
			if tt.wantErr {
				assert.ErrorIs(t, err, validator.ErrInvalidPayload)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	t.Parallel()

	_, err := validator.Compile("broken", []byte(`{`))
	assert.ErrorIs(t, err, validator.ErrInvalidSchema)

	_, err = validator.Compile("bad-type", []byte(`{"type": 12}`))
	assert.ErrorIs(t, err, validator.ErrInvalidSchema)

	assert.Panics(t, func() { validator.MustCompile("broken", []byte(`{`)) })
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"schemas/createUser.json": {Data: []byte(userSchema)},
		"schemas/README.md":       {Data: []byte("ignored")},
	}

	r, err := validator.LoadFS(fsys, "schemas")
	require.NoError(t, err)
	assert.Equal(t, []string{"createUser"}, r.Names())

	s, err := r.Get("createUser")
	require.NoError(t, err)
	assert.NoError(t, s.Validate(map[string]any{"name": "ann"}))

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, validator.ErrUnknownSchema)
}
