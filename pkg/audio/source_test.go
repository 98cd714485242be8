package audio

import "testing"

func TestParseIndex(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantOk  bool
	}{
		{"3", 3, true},
		{"0", 0, true},
		{"", 0, false},
		{"default", 0, false},
		{"usb-mic", 0, false},
	}
	for _, c := range cases {
		got, ok := parseIndex(c.in)
		if ok != c.wantOk || (ok && got != c.want) {
			t.Errorf("parseIndex(%q) = (%d,%v), want (%d,%v)", c.in, got, ok, c.want, c.wantOk)
		}
	}
}

func TestErrDeviceUnavailableMessage(t *testing.T) {
	err := &ErrDeviceUnavailable{Identifier: "usb-mic", Reason: "no match"}
	if err.Error() == "" {
		t.Error("expected non-empty error message")
	}
}

func TestHostAPIRankPrefersEarlierEntries(t *testing.T) {
	if got, want := hostAPIRank("USB Mic (WASAPI)"), len(hostAPIPreference); got != want {
		t.Errorf("hostAPIRank(wasapi) = %d, want %d", got, want)
	}
	if got, want := hostAPIRank("USB Mic (Jack)"), 1; got != want {
		t.Errorf("hostAPIRank(jack) = %d, want %d", got, want)
	}
	if got := hostAPIRank("USB Mic"); got != 0 {
		t.Errorf("hostAPIRank(no match) = %d, want 0", got)
	}
}

func TestScoreCandidateRanksFullFormatMatchAboveNameOnlyMatch(t *testing.T) {
	// Two synthetic candidates both named "usb-mic": one actually supports
	// the desired (rate, channels) combination, the other only claims a
	// preferred host API in its name but can't open at the desired format.
	preferredNameOnly := deviceCandidate{
		name:            "usb-mic (WASAPI)",
		hasInputChannel: true,
	}
	fullMatch := deviceCandidate{
		name:              "usb-mic (ALSA)",
		rateSupported:     true,
		channelsSupported: true,
		formatSupported:   true,
		hasInputChannel:   true,
	}

	preferredScore := scoreCandidate(preferredNameOnly)
	fullScore := scoreCandidate(fullMatch)
	if fullScore <= preferredScore {
		t.Errorf("expected full-format candidate to outscore name-only candidate: full=%d preferred=%d", fullScore, preferredScore)
	}
}

func TestScoreCandidateDefaultBreaksTies(t *testing.T) {
	a := deviceCandidate{name: "mic a", hasInputChannel: true}
	b := deviceCandidate{name: "mic b", hasInputChannel: true, isDefault: true}

	if scoreCandidate(b) <= scoreCandidate(a) {
		t.Errorf("expected default device to score higher when otherwise tied")
	}
}
