package extraction

import "testing"

func TestArchiveNames(t *testing.T) {
	tests := []struct {
		name    string
		archive bool
		partial bool
	}{
		{"frames_clip.mp4.zip", true, false},
		{"frames_my video.mov.zip", true, false},
		{".frames_clip.mp4.zip.123456.partial", false, true},
		{"clip.mp4.zip", false, false},
		{"frames_clip.mp4.zip.bak", false, false},
		{"frames_clip.mp4.partial", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsArchive(tt.name); got != tt.archive {
				t.Errorf("IsArchive(%q) = %v, want %v", tt.name, got, tt.archive)
			}
			if got := IsPartialArchive(tt.name); got != tt.partial {
				t.Errorf("IsPartialArchive(%q) = %v, want %v", tt.name, got, tt.partial)
			}
		})
	}
}
