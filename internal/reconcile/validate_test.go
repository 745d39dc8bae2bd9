package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		requested   []string
		catalog     map[string]string
		wantValid   []string
		wantInvalid []string
	}{
		{
			name:        "known and unknown",
			requested:   []string{"a.b", "x.y"},
			catalog:     map[string]string{"a.b": "a.b"},
			wantValid:   []string{"a.b"},
			wantInvalid: []string{"x.y"},
		},
		{
			name:      "matches values not short names",
			requested: []string{"Sound", "com.apple.preference.sound"},
			catalog: map[string]string{
				"Sound":   "com.apple.preference.sound",
				"Network": "com.apple.preference.network",
			},
			wantValid:   []string{"com.apple.preference.sound"},
			wantInvalid: []string{"Sound"},
		},
		{
			name:        "case sensitive",
			requested:   []string{"com.apple.Preference.Sound"},
			catalog:     map[string]string{"Sound": "com.apple.preference.sound"},
			wantValid:   []string{},
			wantInvalid: []string{"com.apple.Preference.Sound"},
		},
		{
			name:        "repeats dropped, order kept",
			requested:   []string{"b", "a", "b", "z", "z"},
			catalog:     map[string]string{"A": "a", "B": "b"},
			wantValid:   []string{"b", "a"},
			wantInvalid: []string{"z"},
		},
		{
			name:        "empty catalog rejects everything",
			requested:   []string{"a"},
			catalog:     map[string]string{},
			wantValid:   []string{},
			wantInvalid: []string{"a"},
		},
		{
			name:        "empty request",
			requested:   nil,
			catalog:     map[string]string{"A": "a"},
			wantValid:   []string{},
			wantInvalid: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, invalid := Validate(tt.requested, tt.catalog)
			assert.Equal(t, tt.wantValid, valid)
			assert.Equal(t, tt.wantInvalid, invalid)
		})
	}
}
