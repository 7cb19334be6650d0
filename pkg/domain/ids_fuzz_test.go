//go:build go1.18

package domain

import "testing"

// FuzzParseCampaignID checks that parsing never panics and never yields a
// non-positive id without an error.
func FuzzParseCampaignID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("-1")
	f.Add("0x10")
	f.Add("'; DROP TABLE campaigns;--")
	f.Add("9223372036854775808")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseCampaignID(input)
		if err == nil && id <= 0 {
			t.Fatalf("accepted non-positive id %d from %q", id, input)
		}
		if err != nil && id != 0 {
			t.Fatalf("returned id %d alongside error for %q", id, input)
		}
	})
}
