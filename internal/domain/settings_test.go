package domain

import "testing"

func TestReadingSettingsValidate(t *testing.T) {
	if err := DefaultReadingSettings().Validate(); err != nil {
		t.Fatalf("defaults must validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ReadingSettings)
	}{
		{"unknown theme", func(s *ReadingSettings) { s.Theme = "neon" }},
		{"font too small", func(s *ReadingSettings) { s.FontSize = 4 }},
		{"font too large", func(s *ReadingSettings) { s.FontSize = 200 }},
		{"line height out of range", func(s *ReadingSettings) { s.LineHeight = 0.2 }},
		{"zoom out of range", func(s *ReadingSettings) { s.Zoom = 10 }},
	}
	for _, tt := range tests {
		s := DefaultReadingSettings()
		tt.mutate(s)
		if err := s.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", tt.name)
		}
	}
}
