package validation

import "strings"

// Past-tense suffixes covering regular verbs plus common contracted forms.
var pastTenseSuffixes = []string{"ed", "en", "ought", "aught"}

// Irregular past participles that appear as the final word of event names
// without a recognizable suffix.
var irregularPastWords = map[string]bool{
	"begun": true, "bought": true, "built": true, "caught": true,
	"chosen": true, "done": true, "drawn": true, "found": true,
	"given": true, "gone": true, "grown": true, "held": true,
	"kept": true, "known": true, "left": true, "lost": true,
	"made": true, "met": true, "paid": true, "put": true,
	"read": true, "reset": true, "run": true, "seen": true,
	"sent": true, "set": true, "shut": true, "sold": true,
	"spent": true, "split": true, "taken": true, "told": true,
	"understood": true, "withdrawn": true, "won": true, "written": true,
}

// Imperative verbs a command name is expected to start with.
var imperativeVerbs = map[string]bool{
	"accept": true, "activate": true, "add": true, "apply": true,
	"approve": true, "archive": true, "assign": true, "authorize": true,
	"book": true, "calculate": true, "cancel": true, "capture": true,
	"change": true, "charge": true, "close": true, "complete": true,
	"confirm": true, "create": true, "deactivate": true, "decline": true,
	"delete": true, "disable": true, "enable": true, "export": true,
	"generate": true, "import": true, "initiate": true, "invite": true,
	"link": true, "lock": true, "mark": true, "merge": true,
	"notify": true, "open": true, "pay": true, "place": true,
	"process": true, "publish": true, "refund": true, "register": true,
	"reject": true, "release": true, "remove": true, "renew": true,
	"request": true, "reserve": true, "reset": true, "retry": true,
	"schedule": true, "send": true, "set": true, "ship": true,
	"start": true, "stop": true, "submit": true, "sync": true,
	"transfer": true, "unlink": true, "unlock": true, "update": true,
	"upgrade": true, "upload": true, "validate": true, "verify": true,
	"void": true,
}

// splitWords breaks a CamelCase or snake_case name into lowercase words.
func splitWords(name string) []string {
	var words []string
	var current strings.Builder
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ':
			if current.Len() > 0 {
				words = append(words, strings.ToLower(current.String()))
				current.Reset()
			}
		case r >= 'A' && r <= 'Z':
			if current.Len() > 0 {
				words = append(words, strings.ToLower(current.String()))
				current.Reset()
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		words = append(words, strings.ToLower(current.String()))
	}
	return words
}

// looksPastTense reports whether an event name reads as a past-tense fact,
// judged by its final word.
func looksPastTense(name string) bool {
	words := splitWords(name)
	if len(words) == 0 {
		return false
	}
	last := words[len(words)-1]
	if irregularPastWords[last] {
		return true
	}
	for _, suffix := range pastTenseSuffixes {
		if len(last) > len(suffix) && strings.HasSuffix(last, suffix) {
			return true
		}
	}
	return false
}

// looksImperative reports whether a command name starts with a known
// imperative verb.
func looksImperative(name string) bool {
	words := splitWords(name)
	return len(words) > 0 && imperativeVerbs[words[0]]
}
