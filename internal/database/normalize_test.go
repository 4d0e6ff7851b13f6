package database

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Honza", "Honza"},
		{"Jiří", "Jiri"},
		{"café", "cafe"},
		{"naïve", "naive"},
		{"hello", "hello"},
		{"Žluťoučký kůň", "Zlutoucky kun"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RemoveDiacritics(tt.input)
			if result != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeSearchTerm(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jan Novák", "jan novak"},
		{"jan-novak", "jan novak"},
		{"JOHN DOE", "john doe"},
		{"jan-novák", "jan novak"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeSearchTerm(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeSearchTerm(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMatchesSearch(t *testing.T) {
	person := &MissingPerson{
		Name:             "Jiří Novák",
		LastSeenLocation: "Ústí nad Labem",
	}

	tests := []struct {
		name     string
		filter   string
		location string
		expected bool
	}{
		{"ascii name finds diacritic name", "Jiri", "", true},
		{"diacritic query", "Jiří", "", true},
		{"case insensitive", "NOVAK", "", true},
		{"location without diacritics", "", "usti", true},
		{"both filters", "novak", "labem", true},
		{"empty filters match", "", "", true},
		{"wrong name", "svoboda", "", false},
		{"wrong location", "", "praha", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MatchesSearch(person, tt.filter, tt.location)
			if result != tt.expected {
				t.Errorf("MatchesSearch(%q, %q) = %v, want %v", tt.filter, tt.location, result, tt.expected)
			}
		})
	}
}
