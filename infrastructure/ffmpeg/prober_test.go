package ffmpeg

import (
	"context"
	"errors"
	"math"
	"testing"

	"frame-archiver/domain/video"
)

func TestProber_Probe(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    video.Metadata
		wantErr bool
	}{
		{
			name: "frame count reported",
			output: `{"streams":[{"width":1920,"height":1080,"r_frame_rate":"30/1",
				"duration":"12.500000","nb_frames":"375"}]}`,
			want: video.Metadata{Width: 1920, Height: 1080, FPS: 30, Duration: 12.5, FrameCount: 375},
		},
		{
			name:   "frame count estimated from duration",
			output: `{"streams":[{"width":640,"height":360,"r_frame_rate":"25/1","duration":"4.0"}]}`,
			want:   video.Metadata{Width: 640, Height: 360, FPS: 25, Duration: 4, FrameCount: 100},
		},
		{
			name:   "zero denominator falls back to default fps",
			output: `{"streams":[{"width":320,"height":240,"r_frame_rate":"0/0","duration":"2"}]}`,
			want:   video.Metadata{Width: 320, Height: 240, FPS: video.DefaultFPS, Duration: 2, FrameCount: 60},
		},
		{
			name:   "missing fields",
			output: `{"streams":[{}]}`,
			want:   video.Metadata{FPS: video.DefaultFPS},
		},
		{
			name:    "no streams",
			output:  `{"streams":[]}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			output:  `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockCommandRunner{output: []byte(tt.output)}
			p := NewProber(WithFFprobePath("ffprobe"), WithProberCommandRunner(runner))

			got, err := p.Probe(context.Background(), "/videos/clip.mp4")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != tt.want {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}

			args := runner.outputCalls[0]
			if args[len(args)-1] != "/videos/clip.mp4" {
				t.Errorf("expected path as last argument, got %q", args)
			}
		})
	}
}

func TestProber_ProbeCommandFailure(t *testing.T) {
	runner := &mockCommandRunner{outputErr: errors.New("exit status 1")}
	p := NewProber(WithFFprobePath("ffprobe"), WithProberCommandRunner(runner))

	if _, err := p.Probe(context.Background(), "missing.mp4"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"24", 24},
		{"", video.DefaultFPS},
		{"abc/1", video.DefaultFPS},
		{"25/0", video.DefaultFPS},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseFrameRate(tt.input); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("parseFrameRate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
