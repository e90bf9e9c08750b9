package util

import "time"

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// 课程周换算：每个课程周对应 7 个自然日
const (
	DaysPerWeek  = 7
	WeekDuration = DaysPerWeek * 24 * time.Hour
)
