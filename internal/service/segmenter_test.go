package service

import (
	"reflect"
	"testing"
)

func TestSegmentPairs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "digit boundaries",
			input: "Superficie90 m²Piano2",
			want:  map[string]string{"Superficie": "90 m²", "Piano": "2"},
		},
		{
			name:  "uppercase boundary",
			input: "Contratto TransitorioArredatoSì",
			want:  map[string]string{"Contratto Transitorio": "Arredato", "Sì": ""},
		},
		{
			name:  "currency boundary",
			input: "Spese condominio€ 50/mese",
			want:  map[string]string{"Spese condominio": "€ 50/mese"},
		},
		{
			name:  "no boundary yields single label with empty value",
			input: "solo testo minuscolo",
			want:  map[string]string{"solo testo minuscolo": ""},
		},
		{
			name:  "empty input",
			input: "",
			want:  map[string]string{},
		},
		{
			name:  "duplicate label last wins",
			input: "Piano1Piano2",
			want:  map[string]string{"Piano": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentPairs(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SegmentPairs(%q) = %v; want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSegmentPartsDoesNotSplitInsideNumbers(t *testing.T) {
	// 1.200 and (2) and +39 must stay whole
	parts := SegmentParts("Prezzo1.200")
	want := []string{"Prezzo", "1.200"}
	if !reflect.DeepEqual(parts, want) {
		t.Errorf("SegmentParts = %v; want %v", parts, want)
	}

	parts = SegmentParts("Piano2+1")
	want = []string{"Piano", "2+1"}
	if !reflect.DeepEqual(parts, want) {
		t.Errorf("SegmentParts = %v; want %v", parts, want)
	}
}

func TestSegmentList(t *testing.T) {
	got := SegmentList("BalconeCantinaPortiere")
	want := []string{"Balcone", "Cantina", "Portiere"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SegmentList = %v; want %v", got, want)
	}

	if got := SegmentList(""); got != nil {
		t.Errorf("SegmentList(\"\") = %v; want nil", got)
	}
}
