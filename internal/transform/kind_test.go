package transform

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		mime string
		want ContentKind
	}{
		{"application/pdf", KindPDF},
		{"image/jpeg", KindImage},
		{"image/png", KindImage},
		{"image/webp", KindImage},
		{"text/plain", KindText},
		{"text/plain; charset=utf-8", KindText},
		{"application/zip", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := KindOf(tt.mime); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.mime, got, tt.want)
			}
		})
	}
}
