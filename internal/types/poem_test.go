package types

import "testing"

func TestNewVerse(t *testing.T) {
	tests := []struct {
		right, left, full string
	}{
		{"right", "left", "right ... left"},
		{"right", "", "right"},
	}

	for _, tt := range tests {
		v := NewVerse(tt.right, tt.left)
		if v.RightHemistich != tt.right || v.LeftHemistich != tt.left {
			t.Errorf("NewVerse(%q, %q) halves = %q/%q", tt.right, tt.left, v.RightHemistich, v.LeftHemistich)
		}
		if v.FullVerse != tt.full {
			t.Errorf("NewVerse(%q, %q).FullVerse = %q, want %q", tt.right, tt.left, v.FullVerse, tt.full)
		}
	}
}

func TestNewPoem(t *testing.T) {
	c := &PoemContent{
		Bahr:    "الطويل",
		Qafiyah: UnspecifiedMeta,
		Diwan:   MainDiwan,
		Verses:  []Verse{NewVerse("a", "b")},
	}
	p := NewPoem("era", "poet", "title", "https://example.com/poem-1", c)

	if p.Era != "era" || p.Poet != "poet" || p.PoemTitle != "title" {
		t.Errorf("unexpected identity fields: %+v", p)
	}
	if p.Bahr != "الطويل" || p.Qafiyah != UnspecifiedMeta || p.Diwan != MainDiwan {
		t.Errorf("unexpected metadata: %+v", p)
	}
	if p.SourceURL != "https://example.com/poem-1" || len(p.Verses) != 1 {
		t.Errorf("unexpected source/verses: %+v", p)
	}
}
