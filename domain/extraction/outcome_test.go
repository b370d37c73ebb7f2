package extraction

import (
	"errors"
	"strings"
	"testing"
)

func TestOutcome_Message(t *testing.T) {
	tests := []struct {
		name        string
		outcome     Outcome
		wantSuccess bool
		wantContain string
	}{
		{
			name:        "success",
			outcome:     Succeeded("/out/frames_a.mp4.zip", 10),
			wantSuccess: true,
			wantContain: "Success! Saved to: /out/frames_a.mp4.zip",
		},
		{
			name:        "cancelled",
			outcome:     CancelledPartial("/out/frames_a.mp4.zip", 3),
			wantSuccess: true,
			wantContain: "Saved partial ZIP to: /out/frames_a.mp4.zip",
		},
		{
			name:        "failure",
			outcome:     Failed(ErrToolNotFound),
			wantSuccess: false,
			wantContain: "decoding tool not found",
		},
		{
			name: "failure with partial archive",
			outcome: Outcome{
				Kind:        OutcomeFailure,
				ArchivePath: "/out/frames_a.mp4.zip",
				Reason:      errors.New("exit status 1"),
			},
			wantSuccess: false,
			wantContain: "partial frames saved to: /out/frames_a.mp4.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Success(); got != tt.wantSuccess {
				t.Errorf("Success() = %v, want %v", got, tt.wantSuccess)
			}
			if msg := tt.outcome.Message(); !strings.Contains(msg, tt.wantContain) {
				t.Errorf("Message() = %q, want it to contain %q", msg, tt.wantContain)
			}
		})
	}
}
