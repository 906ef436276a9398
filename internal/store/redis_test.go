package store

import "testing"

func TestRedisStore_Key(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"pricecache", "pricecache:series:ERCOT_DAM_SPP_HB_HOUSTON"},
		{"staging", "staging:series:ERCOT_DAM_SPP_HB_HOUSTON"},
		{"", "pricecache:series:ERCOT_DAM_SPP_HB_HOUSTON"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			s := NewRedisStore(nil, tt.prefix, nil)
			if got := s.Key(testKey); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}
