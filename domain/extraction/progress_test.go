package extraction

import "testing"

func TestParseFrameIndex(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   int
		wantOK bool
	}{
		{"padded counter", "frame=  123 fps= 25 q=2.0 size=N/A time=00:00:04.92", 123, true},
		{"no padding", "frame=7 fps=0.0", 7, true},
		{"zero", "frame=    0 fps=0.0 q=0.0", 0, true},
		{"banner line", "ffmpeg version 6.1 Copyright (c) 2000-2023", 0, false},
		{"stream info", "Stream #0:0: Video: h264, yuv420p, 1920x1080, 30 fps", 0, false},
		{"empty", "", 0, false},
		{"counter without digits", "frame= N/A", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFrameIndex(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExpectedOutputFrames(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		interval int
		want     float64
	}{
		{"every frame", 1000, 1, 1000},
		{"every tenth", 1000, 10, 100},
		{"real division", 25, 10, 2.5},
		{"floor at one", 3, 10, 1},
		{"zero total", 0, 1, 1},
		{"invalid interval treated as one", 50, 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpectedOutputFrames(tt.total, tt.interval); got != tt.want {
				t.Errorf("ExpectedOutputFrames(%d, %d) = %v, want %v", tt.total, tt.interval, got, tt.want)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		frame    int
		total    int
		interval int
		want     int
	}{
		{"start", 0, 1000, 1, 0},
		{"half", 500, 1000, 1, 50},
		{"scaled by interval", 50, 1000, 10, 50},
		{"rounds to nearest", 1, 3, 1, 33},
		{"rounds half up", 1, 8, 1, 13},
		{"clamped above", 5000, 1000, 1, 100},
		{"clamped below", -5, 1000, 1, 0},
		{"no estimate", 1, 0, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.frame, tt.total, tt.interval); got != tt.want {
				t.Errorf("Percent(%d, %d, %d) = %d, want %d", tt.frame, tt.total, tt.interval, got, tt.want)
			}
		})
	}
}

func TestPercent_StaysInRangeForIncreasingFrames(t *testing.T) {
	for _, interval := range []int{1, 2, 3, 7, 30, 1000} {
		for _, total := range []int{1, 2, 10, 999, 1000, 54321} {
			prev := 0
			for frame := 0; frame <= total*2; frame += 1 + total/50 {
				p := Percent(frame, total, interval)
				if p < 0 || p > 100 {
					t.Fatalf("Percent(%d, %d, %d) = %d out of range", frame, total, interval, p)
				}
				if p < prev {
					t.Fatalf("Percent decreased from %d to %d at frame %d (total %d, interval %d)", prev, p, frame, total, interval)
				}
				prev = p
			}
		}
	}
}

func TestTracker_Observe(t *testing.T) {
	req := &Request{EstimatedTotalFrames: 100, SamplingInterval: 2}
	tracker := NewTracker(req)

	ev, ok := tracker.Observe("frame=   10 fps=0.0 q=2.0")
	if !ok {
		t.Fatal("expected frame counter to be recognised")
	}
	if ev.Percent != 20 {
		t.Errorf("Percent = %d, want 20", ev.Percent)
	}
	if ev.Message != "Extracting frame 10..." {
		t.Errorf("Message = %q", ev.Message)
	}

	if _, ok := tracker.Observe("Press [q] to stop, [?] for help"); ok {
		t.Error("expected line without counter to be skipped")
	}
	if tracker.Percent() != 20 || tracker.LastFrame() != 10 {
		t.Errorf("non-matching line changed state: percent=%d frame=%d", tracker.Percent(), tracker.LastFrame())
	}

	// A lower counter never lowers the reported percent
	ev, ok = tracker.Observe("frame=    5 fps=0.0")
	if !ok {
		t.Fatal("expected frame counter to be recognised")
	}
	if ev.Percent != 20 {
		t.Errorf("Percent = %d, want 20 after lower counter", ev.Percent)
	}

	ev, _ = tracker.Observe("frame=   80 fps=30")
	if ev.Percent != 100 {
		t.Errorf("Percent = %d, want 100 (clamped)", ev.Percent)
	}
}
