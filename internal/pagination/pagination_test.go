package pagination

import "testing"

func TestNormalize(t *testing.T) {
	defaults := PageRequest{Page: 1, Limit: 20, Sort: "ticketId", Direction: DirectionAsc}

	tests := []struct {
		name                         string
		page, limit, sort, direction string
		want                         PageRequest
	}{
		{
			name: "all defaults when input empty",
			want: PageRequest{Page: 1, Limit: 20, Sort: "ticketId", Direction: DirectionAsc},
		},
		{
			name: "explicit values override defaults",
			page: "3", limit: "5", sort: "createdAt", direction: DirectionDesc,
			want: PageRequest{Page: 3, Limit: 5, Sort: "createdAt", Direction: DirectionDesc},
		},
		{
			name: "non-numeric page and limit fall back",
			page: "abc", limit: "x1",
			want: PageRequest{Page: 1, Limit: 20, Sort: "ticketId", Direction: DirectionAsc},
		},
		{
			name: "unknown sort key passes through untouched",
			sort: "notAField",
			want: PageRequest{Page: 1, Limit: 20, Sort: "notAField", Direction: DirectionAsc},
		},
		{
			name: "zero and negative values are not validated here",
			page: "0", limit: "-5",
			want: PageRequest{Page: 0, Limit: -5, Sort: "ticketId", Direction: DirectionAsc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.page, tt.limit, tt.sort, tt.direction, defaults)
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSkip(t *testing.T) {
	tests := []struct {
		page, limit int
		want        int
	}{
		{1, 20, 0},
		{2, 20, 20},
		{3, 5, 10},
	}
	for _, tt := range tests {
		got := PageRequest{Page: tt.page, Limit: tt.limit}.Skip()
		if got != tt.want {
			t.Errorf("Skip() page=%d limit=%d = %d, want %d", tt.page, tt.limit, got, tt.want)
		}
	}
}
