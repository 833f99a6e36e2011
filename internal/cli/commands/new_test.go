package commands

import "testing"

func TestValidateRuleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple name", "hire_event", false},
		{"dotted name", "people.name", false},
		{"empty", "", true},
		{"contains space", "hire event", true},
		{"contains colon", "hire:event", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRuleName(tt.input)
			if tt.wantErr && err == nil {
				t.Errorf("expected an error for %q", tt.input)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for %q: %v", tt.input, err)
			}
		})
	}
}

func TestNewNewCommandFlags(t *testing.T) {
	cmd := NewNewCommand()
	if cmd.Use != "new" {
		t.Errorf("expected Use to be 'new', got %s", cmd.Use)
	}
	if cmd.Flags().Lookup("file") == nil {
		t.Error("expected a --file flag")
	}
}
