package errors

// ValidateDigits validates a digit-label sequence against a set of known
// classes. Labels are checked before any glyph sampling happens so that a
// bad sequence never produces partial output.
//
// The classes set is the glyph dataset's class alphabet (typically 0-9).
// A nil classes map disables membership checking and only rejects an empty
// sequence.
func ValidateDigits(digits []int, classes map[int]bool) error {
	if len(digits) == 0 {
		return New(ErrCodeInvalidInput, "digit sequence cannot be empty")
	}
	if classes == nil {
		return nil
	}
	for _, d := range digits {
		if !classes[d] {
			return New(ErrCodeInvalidLabel, "label %d is not in the dataset's class set", d)
		}
	}
	return nil
}

// ValidateSpacing validates a (min, max) inter-glyph spacing range.
// Both bounds must be non-negative and min must not exceed max.
func ValidateSpacing(minGap, maxGap int) error {
	if minGap < 0 || maxGap < 0 {
		return New(ErrCodeInvalidRange, "spacing range bounds must be non-negative, got (%d, %d)", minGap, maxGap)
	}
	if minGap > maxGap {
		return New(ErrCodeInvalidRange, "spacing range minimum %d exceeds maximum %d", minGap, maxGap)
	}
	return nil
}

// ValidateWidth validates the target strip width.
func ValidateWidth(width int) error {
	if width <= 0 {
		return New(ErrCodeInvalidWidth, "target width must be positive, got %d", width)
	}
	return nil
}
