package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/wirewave/internal/models"
)

func ids[T Entry](entries []T) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.EntryID()
	}
	return out
}

func TestForPeerOldestFirst(t *testing.T) {
	entries := []models.Message{
		msg("3", "a@x.io", me, "2024-03-01T11:00:00Z", false),
		msg("1", me, "a@x.io", "2024-03-01T09:00:00Z", true),
		msg("2", "b@x.io", me, "2024-03-01T10:00:00Z", false),
		msg("4", "a@x.io", me, "garbage", false),
	}
	thread := ForPeer(entries, me, "a@x.io")
	require.Equal(t, []string{"1", "3", "4"}, ids(thread))
	require.Empty(t, ForPeer(entries, me, "nobody@x.io"))
}

func TestGroupByDay(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	day2 := day1.AddDate(0, 0, 1)
	entries := []models.Message{
		msg("3", "a@x.io", me, day2.Format(time.RFC3339), false),
		msg("1", "a@x.io", me, day1.Format(time.RFC3339), false),
		msg("2", me, "a@x.io", day1.Add(time.Hour).Format(time.RFC3339), false),
	}

	days := GroupByDay(entries)
	require.Len(t, days, 2)
	require.Equal(t, []string{"1", "2"}, ids(days[0].Entries))
	require.Equal(t, []string{"3"}, ids(days[1].Entries))

	require.Equal(t, "Today", days[1].Label(day2.Add(5*time.Hour)))
	require.Equal(t, "Yesterday", days[0].Label(day2.Add(5*time.Hour)))
	require.Equal(t, "Fri, Mar 1 2024", days[0].Label(day1.AddDate(0, 1, 0)))
	require.Equal(t, "Unknown date", Day[models.Message]{}.Label(day1))
}
