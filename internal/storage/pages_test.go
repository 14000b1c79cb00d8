package storage

import "testing"

func TestPageRequestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"zero values", PageRequest{}, PageRequest{Page: 1, Limit: 10}},
		{"negative values", PageRequest{Page: -3, Limit: -1}, PageRequest{Page: 1, Limit: 10}},
		{"oversized limit", PageRequest{Page: 2, Limit: 500}, PageRequest{Page: 2, Limit: 100}},
		{"valid request", PageRequest{Page: 4, Limit: 25}, PageRequest{Page: 4, Limit: 25}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(); got != tc.want {
				t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.limit); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}

func TestValidID(t *testing.T) {
	id, err := generateID()
	if err != nil {
		t.Fatalf("generateID returned error: %v", err)
	}
	if !ValidID(id) {
		t.Fatalf("expected generated id %q to be valid", id)
	}

	invalid := []string{
		"",
		"short",
		"0123456789abcdef0123456789abcdeF",
		"0123456789abcdef0123456789abcdeg",
		"0123456789abcdef0123456789abcdef0",
	}
	for _, candidate := range invalid {
		if ValidID(candidate) {
			t.Fatalf("expected %q to be invalid", candidate)
		}
	}
}
