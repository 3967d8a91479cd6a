package delivery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-band-notify/internal/domain"
)

// summaryTitles is how many titles a summary push lists before "and K more".
const summaryTitles = 3

// composeMessage builds the single push for one recipient. One notification
// is sent as-is; several collapse into a summary listing the newest titles.
func composeMessage(ns []domain.Notification) domain.PushMessage {
	if len(ns) == 1 {
		n := ns[0]
		data := make(map[string]string, len(n.Metadata)+4)
		for k, v := range n.Metadata {
			data[k] = v
		}
		data["notification_id"] = n.NotificationID
		data["band_id"] = n.BandID
		data["type"] = string(n.Type)
		return domain.PushMessage{Title: n.Title, Body: n.Body, Data: data}
	}

	newest := make([]domain.Notification, len(ns))
	copy(newest, ns)
	sort.SliceStable(newest, func(i, j int) bool {
		if newest[i].CreatedAt.Equal(newest[j].CreatedAt) {
			return newest[i].NotificationID > newest[j].NotificationID
		}
		return newest[i].CreatedAt.After(newest[j].CreatedAt)
	})

	lines := make([]string, 0, summaryTitles+1)
	for i := 0; i < len(newest) && i < summaryTitles; i++ {
		lines = append(lines, newest[i].Title)
	}
	if rest := len(newest) - summaryTitles; rest > 0 {
		lines = append(lines, fmt.Sprintf("and %d more", rest))
	}

	ids := make([]string, len(ns))
	band := ns[0].BandID
	for i, n := range ns {
		ids[i] = n.NotificationID
		if n.BandID != band {
			band = ""
		}
	}
	data := map[string]string{
		"notification_ids": strings.Join(ids, ","),
		"count":            strconv.Itoa(len(ns)),
	}
	if band != "" {
		data["band_id"] = band
	}
	return domain.PushMessage{
		Title: fmt.Sprintf("%d new notifications", len(ns)),
		Body:  strings.Join(lines, "\n"),
		Data:  data,
	}
}
