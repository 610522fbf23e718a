package homework

// Status is the review state reported by the API for a single homework.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// verdicts is fixed at build time and never mutated.
var verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the human-readable text for status.
func Verdict(status Status) (string, bool) {
	v, ok := verdicts[status]
	return v, ok
}

// KnownStatuses lists every status the formatter accepts.
func KnownStatuses() []Status {
	return []Status{StatusApproved, StatusReviewing, StatusRejected}
}
