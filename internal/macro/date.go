package macro

import (
	"fmt"
	"time"
)

// rocEpoch is the Gregorian year before year 1 of the Republic of China era.
const rocEpoch = 1911

var weekdays = [7]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// DateMacros returns the date and time strings offered by the date macro
// menu, evaluated at now.
func DateMacros(now time.Time) []string {
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)
	return []string{
		now.Format("2006-01-02"),
		chineseDate(now),
		rocDate(now),
		weekdays[now.Weekday()],
		now.Format("15:04"),
		chineseDate(yesterday),
		chineseDate(tomorrow),
	}
}

func chineseDate(t time.Time) string {
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}

func rocDate(t time.Time) string {
	return fmt.Sprintf("民國%d年%d月%d日", t.Year()-rocEpoch, int(t.Month()), t.Day())
}
