package model

import "testing"

func TestParseTransferSort(t *testing.T) {
	tests := []struct {
		in      string
		want    TransferSort
		wantErr bool
	}{
		{"", SortByCreatedAt, false},
		{"id", SortByID, false},
		{"scheduled_date", SortByScheduledDate, false},
		{"status", SortByStatus, false},
		{"updated_at", SortByUpdatedAt, false},
		{"name; DROP TABLE transfer_records", "", true},
		{"remarks", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTransferSort(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTransferSort(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTransferSort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSortDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    SortDirection
		wantErr bool
	}{
		{"", SortDesc, false},
		{"asc", SortAsc, false},
		{"desc", SortDesc, false},
		{"ASC", "", true},
		{"up", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSortDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortDirection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if SortAsc.SQL() != "ASC" || SortDesc.SQL() != "DESC" {
		t.Error("unexpected SQL keywords for sort directions")
	}
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Limit: DefaultPageLimit}},
		{Page{Limit: 50, Offset: 10}, Page{Limit: 50, Offset: 10}},
		{Page{Limit: 5000}, Page{Limit: MaxPageLimit}},
		{Page{Limit: -1, Offset: -3}, Page{Limit: DefaultPageLimit}},
	}

	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("%+v.Normalize() = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
