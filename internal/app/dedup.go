package app

// ShouldSend reports whether candidate differs from the last message sent in
// the same category.
func ShouldSend(candidate, lastSent string) bool {
	return candidate != lastSent
}

// DeliveryState holds the two dedup categories. Fields are only updated after
// a successful send.
type DeliveryState struct {
	LastMessage      string
	LastErrorMessage string
}
