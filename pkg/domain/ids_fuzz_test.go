package domain

import (
	"testing"
)

// FuzzParseProfileID checks parsing never panics and valid ids round-trip.
func FuzzParseProfileID(f *testing.F) {
	f.Add("")
	f.Add("0x")
	f.Add(DeriveProfileID(1, owner).String())
	f.Add("0x0000000000000000000000000000000000000000000000000000000000000000")
	f.Add("'; DROP TABLE profiles;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseProfileID(input)
		if err != nil {
			return
		}
		if id.IsZero() {
			t.Fatal("parsed a zero profile id")
		}
		roundTrip, err := ParseProfileID(id.String())
		if err != nil {
			t.Fatalf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Fatal("round-trip changed id value")
		}
	})
}
