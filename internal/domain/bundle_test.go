package domain

import "testing"

func TestResultBundle_Total(t *testing.T) {
	b := &ResultBundle{
		Documents: Documents{Hits: []DocumentHit{{ID: 1}}, Total: 120},
		Emails:    Emails{Total: 7},
		Flights:   Flights{Total: 3},
		Photos:    Photos{Total: 41},
		Entities:  Entities{Total: 2},
		News:      News{Total: 5},
	}
	// Total follows the count queries, not the capped row lists.
	if got := b.Total(); got != 178 {
		t.Errorf("Total() = %d, want 178", got)
	}
}

func TestComputeExactMatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		b    ResultBundle
		want bool
	}{
		{
			name: "whole word in document title",
			raw:  "island",
			b: ResultBundle{
				Documents: Documents{Hits: []DocumentHit{{Title: "Little Island Deed"}}, Total: 1},
			},
			want: true,
		},
		{
			name: "substring only is not exact",
			raw:  "island",
			b: ResultBundle{
				Documents: Documents{Hits: []DocumentHit{{Title: "islander records"}}, Total: 1},
			},
			want: false,
		},
		{
			name: "case insensitive entity name",
			raw:  "maxwell",
			b: ResultBundle{
				Entities: Entities{Hits: []EntityHit{{Name: "Ghislaine Maxwell"}}, Total: 1},
			},
			want: true,
		},
		{
			name: "email sender",
			raw:  "jeffrey",
			b: ResultBundle{
				Emails: Emails{Hits: []EmailHit{{Sender: "jeffrey@example.com"}}, Total: 1},
			},
			want: true,
		},
		{
			name: "flight passenger list",
			raw:  "doe",
			b: ResultBundle{
				Flights: Flights{Hits: []FlightHit{{PassengerList: "Jane Doe, John Smith"}}, Total: 1},
			},
			want: true,
		},
		{
			name: "zero total never matches",
			raw:  "island",
			b:    ResultBundle{},
			want: false,
		},
		{
			name: "regex metacharacters are quoted",
			raw:  "a.b",
			b: ResultBundle{
				Documents: Documents{Hits: []DocumentHit{{Title: "aXb file"}}, Total: 1},
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.b.ComputeExactMatch(tt.raw)
			if tt.b.HasExactMatch != tt.want {
				t.Errorf("HasExactMatch = %v, want %v", tt.b.HasExactMatch, tt.want)
			}
		})
	}
}
