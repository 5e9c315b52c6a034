package layout

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#E23A4E", color.NRGBA{0xe2, 0x3a, 0x4e, 255}},
		{"#00000080", color.NRGBA{0, 0, 0, 0x80}},
		{"#f008", color.NRGBA{255, 0, 0, 0x88}},
		{"rgb(10, 20, 30)", color.NRGBA{10, 20, 30, 255}},
		{"rgba(255,0,0,0.5)", color.NRGBA{255, 0, 0, 128}},
		{"White", color.NRGBA{255, 255, 255, 255}},
		{"transparent", color.NRGBA{}},
	}
	for _, c := range cases {
		got, err := ParseColor(c.in)
		if err != nil {
			t.Fatalf("ParseColor(%q) 出错: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseColor(%q) 期望 %v，实际 %v", c.in, c.want, got)
		}
	}
	for _, bad := range []string{"", "#12", "#gggggg", "rgb(1,2)", "hsl(1,2,3)"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) 应当失败", bad)
		}
	}
}

func TestFontRoundTrip(t *testing.T) {
	f := Font{Style: "italic", Weight: "bold", Size: 24, Family: "serif"}
	if got := f.String(); got != "italic bold 24px serif" {
		t.Fatalf("font 简写不符: %q", got)
	}
	parsed, err := ParseFont(f.String())
	if err != nil {
		t.Fatalf("ParseFont: %v", err)
	}
	if parsed != f {
		t.Fatalf("往返结果不符: %+v", parsed)
	}
	if !parsed.IsBold() || !parsed.IsItalic() {
		t.Fatalf("应识别为粗斜体: %+v", parsed)
	}
}

func TestParseFontDefaults(t *testing.T) {
	f, err := ParseFont(`16px "Latin Modern Sans"`)
	if err != nil {
		t.Fatalf("ParseFont: %v", err)
	}
	want := Font{Style: "normal", Weight: "normal", Size: 16, Family: "Latin Modern Sans"}
	if f != want {
		t.Fatalf("期望 %+v，实际 %+v", want, f)
	}
	if (Font{Size: 12}).String() != "normal normal 12px sans-serif" {
		t.Fatalf("零值字体的简写不符: %q", Font{Size: 12}.String())
	}
	if _, err := ParseFont("bold sans-serif"); err == nil {
		t.Fatalf("缺少字号时应当失败")
	}
}
