package homework

import "fmt"

// Entry is one homework record from the API response.
type Entry struct {
	Name   string
	Status Status
}

// ParseEntry turns one raw homeworks element into an Entry.
// Statuses outside the verdict table are rejected, not skipped.
func ParseEntry(raw any) (Entry, error) {
	record, ok := raw.(map[string]any)
	if !ok {
		return Entry{}, schemaErr(ReasonEntryNotRecord)
	}

	name, ok := record["homework_name"].(string)
	if !ok {
		return Entry{}, schemaErr(ReasonMissingName)
	}

	rawStatus, _ := record["status"].(string)
	status := Status(rawStatus)
	if _, known := verdicts[status]; !known {
		return Entry{}, schemaErr(ReasonUnknownStatus)
	}

	return Entry{Name: name, Status: status}, nil
}

// FormatMessage renders the notification text for e.
// e must come from ParseEntry.
func FormatMessage(e Entry) string {
	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", e.Name, verdicts[e.Status])
}

// FormatRaw is ParseEntry followed by FormatMessage.
func FormatRaw(raw any) (string, error) {
	entry, err := ParseEntry(raw)
	if err != nil {
		return "", err
	}
	return FormatMessage(entry), nil
}
