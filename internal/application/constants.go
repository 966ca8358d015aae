package application

import "time"

const (
	// One-time code shape
	codeLength   = 8
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultCodeTTL = 10 * time.Minute

	// Attempts to draw a code that is not pending already
	codeGenerationAttempts = 5
)
