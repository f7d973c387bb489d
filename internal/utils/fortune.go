package utils

import (
	"hash/fnv"
	"time"
)

// Fortune is the daily fortune widget entry.
type Fortune struct {
	Date    string `json:"date"`
	Message string `json:"message"`
	Lucky   string `json:"lucky"`
}

var fortunes = []string{
	"Your voice will carry further than you expect today.",
	"A new duet partner is closer than you think.",
	"Rest your throat; tomorrow's set needs it.",
	"Someone in the crowd will remember this song for years.",
	"Try the song you have been avoiding.",
	"Tune twice, play once.",
	"A small audience is still an audience. Play your best.",
	"Record today's practice. You will want to hear it later.",
	"Good news arrives in a comment thread.",
	"Your rhythm is steadier than you feel it is.",
}

var luckyItems = []string{
	"capo", "tambourine", "warm tea", "spare strings", "cajon", "harmonica", "metronome", "lyric sheet",
}

// DailyFortune picks a fortune for uid on the day of now in loc.
// The same user gets the same fortune all day.
func DailyFortune(uid string, now time.Time, loc *time.Location) Fortune {
	if loc != nil {
		now = now.In(loc)
	}
	day := now.Format("2006-01-02")

	h := fnv.New32a()
	h.Write([]byte(uid))
	h.Write([]byte{0})
	h.Write([]byte(day))
	sum := h.Sum32()

	return Fortune{
		Date:    day,
		Message: fortunes[sum%uint32(len(fortunes))],
		Lucky:   luckyItems[(sum/7)%uint32(len(luckyItems))],
	}
}
