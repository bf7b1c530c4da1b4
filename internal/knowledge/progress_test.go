package knowledge

import "testing"

func TestDocumentPercent(t *testing.T) {
	tests := []struct {
		name         string
		known, total int
		want         int
	}{
		{"zero nodes", 0, 0, 0},
		{"nothing known", 0, 10, 0},
		{"all known", 10, 10, 100},
		{"floors down", 1, 3, 33},
		{"floors two thirds", 2, 3, 66},
		{"half", 5, 10, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DocumentPercent(tt.known, tt.total); got != tt.want {
				t.Errorf("DocumentPercent(%d, %d) = %d, want %d", tt.known, tt.total, got, tt.want)
			}
		})
	}
}

func TestSubjectPercent(t *testing.T) {
	tests := []struct {
		name     string
		percents []int
		want     int
	}{
		{"no documents", nil, 0},
		{"single document", []int{42}, 42},
		{"floors mean", []int{33, 66}, 49},
		{"all complete", []int{100, 100, 100}, 100},
		{"mixed", []int{0, 50, 100}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SubjectPercent(tt.percents); got != tt.want {
				t.Errorf("SubjectPercent(%v) = %d, want %d", tt.percents, got, tt.want)
			}
		})
	}
}
