package utils

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"debug mode logs corpus and query detail", true, true},
		{"production mode starts at info", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.debug)
			if err != nil {
				t.Fatalf("NewLogger(%v) error: %v", tt.debug, err)
			}
			if logger == nil {
				t.Fatalf("NewLogger(%v) returned nil logger", tt.debug)
			}
			defer func() { _ = logger.Sync() }()
			if got := logger.Core().Enabled(zap.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if !logger.Core().Enabled(zap.InfoLevel) {
				t.Error("info level should always be enabled")
			}
		})
	}
}
