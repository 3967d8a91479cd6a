package preference

import (
	"sort"

	"github.com/go-band-notify/internal/domain"
)

// EligibleRecipients decides who hears about an event: every active member
// except the actor, minus anyone whose master switch or category flag is
// off. Members without a preference row count as fully enabled. The result
// is sorted so repeated calls with the same input agree.
func EligibleRecipients(
	members []domain.BandMember,
	prefs map[string]domain.NotificationPreference,
	actorID *string,
	eventType domain.EventType,
) []string {
	category, ok := eventType.Category()
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if !m.Active {
			continue
		}
		if actorID != nil && m.UserID == *actorID {
			continue
		}
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		seen[m.UserID] = struct{}{}
		p, found := prefs[m.UserID]
		if !found {
			p = domain.DefaultPreference(m.UserID)
		}
		if !p.Allows(category) {
			continue
		}
		out = append(out, m.UserID)
	}
	sort.Strings(out)
	return out
}
