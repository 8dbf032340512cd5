package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  Error
		want string
	}{
		{"message only", New(CodeNotFound, "release zbcli-9.9.9 not found", nil), "release zbcli-9.9.9 not found"},
		{"message and cause", New(CodeIO, "write /usr/bin/zbcli", errors.New("permission denied")), "write /usr/bin/zbcli: permission denied"},
		{"cause only", New(CodeNetwork, "", errors.New("connection refused")), "connection refused"},
		{"code only", New(CodeAssetNotFound, "", nil), "asset_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOfWalksChain(t *testing.T) {
	base := New(CodeUnsupportedPlatform, "unknown model", nil)
	wrapped := fmt.Errorf("detect platform: %w", base)

	if got := CodeOf(wrapped); got != CodeUnsupportedPlatform {
		t.Errorf("CodeOf() = %q, want %q", got, CodeUnsupportedPlatform)
	}
	if !IsCode(wrapped, CodeUnsupportedPlatform) {
		t.Error("IsCode() = false, want true")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Error("IsCode(CodeNotFound) = true, want false")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Errorf("CodeOf() = %q, want %q", got, CodeUnknown)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Errorf("CodeOf(nil) = %q, want %q", got, CodeUnknown)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := New(CodeIO, "write", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not find the wrapped cause")
	}
}
