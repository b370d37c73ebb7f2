package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	appvideo "frame-archiver/application/video"
	"frame-archiver/domain/video"
	"frame-archiver/infrastructure/filesystem"

	"go.uber.org/zap"
)

func TestRunProbe(t *testing.T) {
	input := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(input, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		prober   *mockProber
		input    ProbeInput
		wantErr string
		want    []string
		notWant []string
	}{
		{
			name:   "known frame count",
			prober: &mockProber{meta: &video.Metadata{Width: 1920, Height: 1080, FPS: 29.97, Duration: 10.5, FrameCount: 315}},
			input:  ProbeInput{InputPath: input, Every: 10, Format: "jpg"},
			want: []string{
				"File:       " + input,
				"Resolution: 1920x1080",
				"Frame rate: 29.970 fps",
				"Duration:   10.50 s",
				"Frames:     315",
				"Will extract approx 31 images (~9.3 MB unzipped)",
			},
		},
		{
			name:    "unknown frame count",
			prober:  &mockProber{meta: &video.Metadata{Width: 640, Height: 480}},
			input:   ProbeInput{InputPath: input, Every: 1, Format: "png"},
			want:    []string{"Frames:     unknown"},
			notWant: []string{"Will extract"},
		},
		{
			name:    "missing input",
			prober:  &mockProber{meta: &video.Metadata{FrameCount: 10}},
			input:   ProbeInput{InputPath: filepath.Join(t.TempDir(), "absent.mp4"), Every: 1, Format: "png"},
			wantErr: "source video does not exist",
		},
		{
			name:    "prober error",
			prober:  &mockProber{err: errors.New("invalid data found when processing input")},
			input:   ProbeInput{InputPath: input, Every: 1, Format: "png"},
			wantErr: "probe failed: invalid data found",
		},
		{
			name:    "bad format",
			prober:  &mockProber{meta: &video.Metadata{FrameCount: 10}},
			input:   ProbeInput{InputPath: input, Every: 1, Format: "gif"},
			wantErr: "unsupported image format",
		},
		{
			name:    "zero interval",
			prober:  &mockProber{meta: &video.Metadata{FrameCount: 10}},
			input:   ProbeInput{InputPath: input, Format: "png"},
			wantErr: "sampling interval must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := appvideo.NewProbeService(tt.prober, filesystem.NewChecker(), 1000, zap.NewNop())
			var out bytes.Buffer

			err := RunProbeWithDependencies(context.Background(), service, tt.input, &out)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error, got output:\n%s", out.String())
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("err = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RunProbeWithDependencies: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output missing %q:\n%s", w, out.String())
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out.String(), w) {
					t.Errorf("output unexpectedly contains %q:\n%s", w, out.String())
				}
			}
		})
	}
}
