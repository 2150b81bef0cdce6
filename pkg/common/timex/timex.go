package timex

import "time"

func Human(value time.Time) string {
	return value.Format("2006-01-02 15:04:05")
}
