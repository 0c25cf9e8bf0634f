package availability

import "fmt"

// FormatSlotHuman renders a slot the way the conversational agent presents it,
// e.g. "Tuesday, September 1 at 3:00 PM (Providencia)". Presentation only;
// nothing downstream parses this back.
func FormatSlotHuman(cfg *Config, day, startTime, location string) string {
	instant, err := SlotInstant(cfg, day, startTime)
	if err != nil {
		if location != "" {
			return fmt.Sprintf("%s %s (%s)", day, startTime, location)
		}
		return fmt.Sprintf("%s %s", day, startTime)
	}
	formatted := instant.Format("Monday, January 2 at 3:04 PM")
	if location == "" {
		return formatted
	}
	return fmt.Sprintf("%s (%s)", formatted, location)
}
