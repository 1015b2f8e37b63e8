package theater

import "testing"

func TestOrderIndex(t *testing.T) {
	now := int64(1_700_000_000)
	day := int64(86_400)

	tests := []struct {
		name     string
		instants []int64
		want     int64
		wantOK   bool
	}{
		{
			name:     "no events",
			instants: nil,
			wantOK:   false,
		},
		{
			name:     "single upcoming",
			instants: []int64{now + day},
			want:     now + day,
			wantOK:   true,
		},
		{
			name:     "earliest upcoming wins over later upcoming",
			instants: []int64{now + 4*day, now + day, now + 2*day},
			want:     now + day,
			wantOK:   true,
		},
		{
			name:     "upcoming wins over any past",
			instants: []int64{now - 365*day, now + 7*day, now - day},
			want:     now + 7*day,
			wantOK:   true,
		},
		{
			name:     "all past picks latest",
			instants: []int64{now - 365*day, now - day, now - 7*day},
			want:     now - day,
			wantOK:   true,
		},
		{
			name:     "event exactly at now counts as upcoming",
			instants: []int64{now, now - day},
			want:     now,
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OrderIndex(tt.instants, now)
			if ok != tt.wantOK {
				t.Fatalf("OrderIndex() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("OrderIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Instants before unix 1000000000 have fewer decimal digits; a lexical
// comparison would sort 1999 after 2010. Ordering must stay numeric.
func TestOrderIndexShortTimestamps(t *testing.T) {
	instant1999 := int64(915_148_800)   // 1999-01-01, ten digits minus one
	instant2010 := int64(1_262_304_000) // 2010-01-01
	now := int64(1_700_000_000)         // both instants are past

	got, ok := OrderIndex([]int64{instant2010, instant1999}, now)
	if !ok {
		t.Fatal("OrderIndex() returned no index")
	}
	if got != instant2010 {
		t.Fatalf("OrderIndex() = %d, want %d (2010 is later than 1999 numerically)", got, instant2010)
	}
}
