package m3u

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseBlocks(t *testing.T) {
	content := "#EXTM3U x-tvg-url=\"http://epg\"\r\n" +
		"stray line before any block\n" +
		"#EXTINF:-1 tvg-id=\"starplus.in\" group-title=\"Hindi\",Star Plus\n" +
		"#EXTVLCOPT:http-user-agent=Mozilla\n" +
		"\n" +
		"  http://a/starplus.m3u8  \n" +
		"#EXTINF:-1,Colors TV\n" +
		"http://a/colors.m3u8\n" +
		"#EXTINF:-1 tvg-id=\"new\",Star Plus\n" +
		"http://b/starplus.m3u8\n"

	blocks := ParseBlocks(content)

	if got, want := blocks.Names(), []string{"Star Plus", "Colors TV"}; !cmp.Equal(got, want) {
		t.Fatalf("names mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}

	star, ok := blocks.Get("Star Plus")
	if !ok {
		t.Fatal("Star Plus not found")
	}
	want := Block{
		Name:  "Star Plus",
		Lines: []string{`#EXTINF:-1 tvg-id="new",Star Plus`, "http://b/starplus.m3u8"},
	}
	if diff := cmp.Diff(want, star); diff != "" {
		t.Errorf("repeated name must replace block (-want +got):\n%s", diff)
	}

	colors, _ := blocks.Get("Colors TV")
	if colors.Extinf() != "#EXTINF:-1,Colors TV" {
		t.Errorf("Extinf() = %q", colors.Extinf())
	}
	if diff := cmp.Diff([]string{"http://a/colors.m3u8"}, colors.Body()); diff != "" {
		t.Errorf("Body() mismatch:\n%s", diff)
	}
}

func TestParseBlocks_KeepsOptionLines(t *testing.T) {
	blocks := ParseBlocks("#EXTINF:-1,Sony\n#EXTVLCOPT:x=y\n#KODIPROP:a=b\nhttp://s\n")
	sony, ok := blocks.Get("Sony")
	if !ok {
		t.Fatal("Sony not found")
	}
	if len(sony.Lines) != 4 {
		t.Errorf("got %d lines, want 4: %v", len(sony.Lines), sony.Lines)
	}
}

func TestParseBlocks_Empty(t *testing.T) {
	for _, in := range []string{"", "#EXTM3U\n", "\n\n  \n", "http://orphan\n"} {
		if n := ParseBlocks(in).Len(); n != 0 {
			t.Errorf("ParseBlocks(%q).Len() = %d, want 0", in, n)
		}
	}
}

func TestKey_NFC(t *testing.T) {
	composed := "Zee Caf\u00e9"
	decomposed := "Zee Cafe\u0301"

	blocks := ParseBlocks("#EXTINF:-1," + decomposed + "\nhttp://z\n")
	if _, ok := blocks.Get(composed); !ok {
		t.Error("composed name must match decomposed block")
	}
	if Key(composed) != Key(decomposed) {
		t.Error("keys differ")
	}
}

func TestNameOf(t *testing.T) {
	tests := map[string]string{
		`#EXTINF:-1 tvg-name="a,b",Final Name`: "Final Name",
		"#EXTINF:-1,  Padded  ":                "Padded",
		"#EXTINF:-1":                           "#EXTINF:-1",
		"#EXTINF:-1,":                          "",
	}
	for in, want := range tests {
		if got := NameOf(in); got != want {
			t.Errorf("NameOf(%q) = %q, want %q", in, got, want)
		}
	}
}
