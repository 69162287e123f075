package model

import (
	"fmt"
	"strings"
)

// Language is the closed set of languages the platform judges. Each variant
// carries its Judge0 language id; the set is fixed at compile time and is
// deliberately not configuration-loaded.
type Language string

const (
	LangCPP        Language = "c++"
	LangJava       Language = "java"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangC          Language = "c"
	LangCSharp     Language = "c#"
)

// ParseLanguage resolves a human-readable language name, case-insensitively.
// An unknown name is a caller error: orchestrators must reject the request
// before any dispatch.
func ParseLanguage(name string) (Language, error) {
	switch Language(strings.ToLower(name)) {
	case LangCPP:
		return LangCPP, nil
	case LangJava:
		return LangJava, nil
	case LangPython:
		return LangPython, nil
	case LangJavaScript:
		return LangJavaScript, nil
	case LangC:
		return LangC, nil
	case LangCSharp:
		return LangCSharp, nil
	}
	return "", fmt.Errorf("unsupported language: %q", name)
}

// JudgeID returns the Judge0 numeric language identifier.
func (l Language) JudgeID() int {
	switch l {
	case LangCPP:
		return 53
	case LangJava:
		return 62
	case LangPython:
		return 71
	case LangJavaScript:
		return 63
	case LangC:
		return 50
	case LangCSharp:
		return 51
	}
	return 0
}

func (l Language) String() string {
	return string(l)
}

// SupportedLanguages lists every judged language, for API discovery.
func SupportedLanguages() []Language {
	return []Language{LangCPP, LangJava, LangPython, LangJavaScript, LangC, LangCSharp}
}
