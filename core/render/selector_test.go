package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		key      string
		value    string
		wantErr  bool
	}{
		{"Simple", "app=foo", "app", "foo", false},
		{"EmptyValue", "app=", "app", "", false},
		{"PrefixedKey", "app.kubernetes.io/name=foo", "app.kubernetes.io/name", "foo", false},
		{"NoEquals", "appfoo", "", "", true},
		{"EmptyKey", "=foo", "", "", true},
		{"MultiplePairs", "app=foo,tier=db", "", "", true},
		{"Empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, err := ParseSelector(tt.selector)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSelector)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}
