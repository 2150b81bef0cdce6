package stringsx

import (
	"path"
	"regexp"
	"strings"
)

func MatchPattern(value, pattern string) bool {
	matched, _ := path.Match(pattern, value)
	return matched
}

func MatchAnyPattern(value string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := path.Match(pattern, value); matched {
			return true
		}
	}
	return false
}

func BeforeLast(value string, a string) string {
	pos := strings.LastIndex(value, a)
	if pos == -1 {
		return value
	}
	return value[0:pos]
}

func AfterLast(value string, a string) string {
	pos := strings.LastIndex(value, a)
	if pos == -1 {
		return ""
	}
	adjustedPos := pos + len(a)
	if adjustedPos >= len(value) {
		return ""
	}
	return value[adjustedPos:]
}

var snakeMatchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
var snakeMatchAllCap = regexp.MustCompile("([a-z0-9])([A-Z])")

func SnakeCase(str string) string {
	snake := snakeMatchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = snakeMatchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}
