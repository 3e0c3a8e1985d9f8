package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidWidth, "target width must be positive, got %d", -3)

	if err.Code != ErrCodeInvalidWidth {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidWidth)
	}

	if err.Message != "target width must be positive, got -3" {
		t.Errorf("Message = %v", err.Message)
	}

	expected := "INVALID_WIDTH: target width must be positive, got -3"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeDatasetCorrupt, cause, "decode images file")

	if err.Code != ErrCodeDatasetCorrupt {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDatasetCorrupt)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidLabel, "label 12 is not in the dataset's class set"),
			code:     ErrCodeInvalidLabel,
			expected: true,
		},
		{
			name:     "different code",
			err:      New(ErrCodeInvalidLabel, "label 12 is not in the dataset's class set"),
			code:     ErrCodeInvalidWidth,
			expected: false,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "wrapped structured error",
			err:      Wrap(ErrCodeBackgroundExhausted, errors.New("crop 40x40 exceeds 28x28"), "sample crop"),
			code:     ErrCodeBackgroundExhausted,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeUnsupportedStyle, "unknown style")); got != ErrCodeUnsupportedStyle {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeUnsupportedStyle)
	}
	if got := GetCode(errors.New("plain")); got != Code("") {
		t.Errorf("GetCode() = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidRange, "spacing range minimum 5 exceeds maximum 2")
	if got := UserMessage(err); got != "spacing range minimum 5 exceeds maximum 2" {
		t.Errorf("UserMessage() = %v", got)
	}
	plain := errors.New("plain failure")
	if got := UserMessage(plain); got != "plain failure" {
		t.Errorf("UserMessage() = %v", got)
	}
}

func TestValidateDigits(t *testing.T) {
	classes := map[int]bool{}
	for d := 0; d <= 9; d++ {
		classes[d] = true
	}

	tests := []struct {
		name   string
		digits []int
		code   Code
	}{
		{name: "valid", digits: []int{4, 5, 6, 2, 3}, code: ""},
		{name: "empty", digits: nil, code: ErrCodeInvalidInput},
		{name: "out of alphabet", digits: []int{3, 12}, code: ErrCodeInvalidLabel},
		{name: "negative label", digits: []int{-1}, code: ErrCodeInvalidLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDigits(tt.digits, classes)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("ValidateDigits() = %v, want nil", err)
				}
				return
			}
			if !Is(err, tt.code) {
				t.Errorf("ValidateDigits() = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestValidateSpacing(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		code     Code
	}{
		{name: "valid", min: 1, max: 30, code: ""},
		{name: "zero width gaps", min: 0, max: 0, code: ""},
		{name: "negative min", min: -1, max: 5, code: ErrCodeInvalidRange},
		{name: "inverted bounds", min: 5, max: 2, code: ErrCodeInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpacing(tt.min, tt.max)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("ValidateSpacing() = %v, want nil", err)
				}
				return
			}
			if !Is(err, tt.code) {
				t.Errorf("ValidateSpacing() = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestValidateWidth(t *testing.T) {
	if err := ValidateWidth(100); err != nil {
		t.Fatalf("ValidateWidth(100) = %v, want nil", err)
	}
	if err := ValidateWidth(0); !Is(err, ErrCodeInvalidWidth) {
		t.Errorf("ValidateWidth(0) = %v, want INVALID_WIDTH", err)
	}
	if err := ValidateWidth(-10); !Is(err, ErrCodeInvalidWidth) {
		t.Errorf("ValidateWidth(-10) = %v, want INVALID_WIDTH", err)
	}
}
