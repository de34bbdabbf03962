package model

import (
	"errors"
	"testing"
)

func TestParseResourceType(t *testing.T) {
	for _, s := range []string{"track", "playlist"} {
		rt, err := ParseResourceType(s)
		if err != nil {
			t.Errorf("ParseResourceType(%q) failed: %v", s, err)
		}
		if string(rt) != s {
			t.Errorf("ParseResourceType(%q) = %q", s, rt)
		}
	}

	for _, s := range []string{"", "album", "Track", "tracks"} {
		if _, err := ParseResourceType(s); !errors.Is(err, ErrInvalidResourceType) {
			t.Errorf("ParseResourceType(%q): got err %v, want ErrInvalidResourceType", s, err)
		}
	}
}

func TestResourceTypeTable(t *testing.T) {
	cases := []struct {
		rt   ResourceType
		want string
	}{
		{ResourceTrack, "tracks"},
		{ResourcePlaylist, "playlists"},
	}
	for _, tc := range cases {
		table, err := tc.rt.Table()
		if err != nil {
			t.Errorf("Table(%q) failed: %v", tc.rt, err)
		}
		if table != tc.want {
			t.Errorf("Table(%q) = %q, want %q", tc.rt, table, tc.want)
		}
	}

	if _, err := ResourceType("album").Table(); !errors.Is(err, ErrInvalidResourceType) {
		t.Errorf("Table on unknown type: got err %v, want ErrInvalidResourceType", err)
	}
}
