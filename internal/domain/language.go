package domain

import "fmt"

// Language tags the programming language of a coding exercise.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageGo         Language = "go"
	LanguageJava       Language = "java"
	LanguageC          Language = "c"
	LanguageCPP        Language = "cpp"
	LanguageRust       Language = "rust"
)

// Languages lists every supported tag.
var Languages = []Language{
	LanguagePython, LanguageJavaScript, LanguageTypeScript, LanguageGo,
	LanguageJava, LanguageC, LanguageCPP, LanguageRust,
}

// IsValid checks if the language is supported
func (l Language) IsValid() bool {
	switch l {
	case LanguagePython, LanguageJavaScript, LanguageTypeScript, LanguageGo,
		LanguageJava, LanguageC, LanguageCPP, LanguageRust:
		return true
	default:
		return false
	}
}

func (l Language) String() string {
	return string(l)
}

// ParseLanguage converts a string to a Language
func ParseLanguage(s string) (Language, error) {
	lang := Language(s)
	if !lang.IsValid() {
		return "", fmt.Errorf("unsupported language: %s", s)
	}
	return lang, nil
}
