// Package bot implements the rule-based mood companion that answers /get.
package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	sadPattern      = regexp.MustCompile(`\b(sad|depressed|upset|lonely)\b`)
	happyPattern    = regexp.MustCompile(`\b(happy|excited|great|good)\b`)
	stressedPattern = regexp.MustCompile(`\b(stressed|anxious|tired|angry)\b`)
	greetingPattern = regexp.MustCompile(`\b(hi|hello|hey|yo)\b`)
	timePattern     = regexp.MustCompile(`what.*time`)
	goodbyePattern  = regexp.MustCompile(`\b(bye|exit|quit|see you)\b`)
)

const (
	GreetingReply = "Hey there! May I know your name? 😊"
	FallbackReply = "Hmm... I didn’t quite get that. Try expressing how you feel or say 'hi' 👋"
)

// NameStore remembers the single user name the bot learns from the first
// message it sees.
type NameStore interface {
	Name(ctx context.Context) (name string, ok bool, err error)
	SetName(ctx context.Context, name string) error
}

type RulesOption func(*Rules)

// WithClock overrides the time source used by the time rule.
func WithClock(now func() time.Time) RulesOption {
	return func(r *Rules) {
		if now != nil {
			r.now = now
		}
	}
}

// Rules answers with canned replies chosen by keyword rules.
type Rules struct {
	names NameStore
	now   func() time.Time
	title cases.Caser

	// serializes the learn-name step
	mu sync.Mutex
}

func NewRules(names NameStore, opts ...RulesOption) *Rules {
	if names == nil {
		names = NewMemoryStore()
	}
	r := &Rules{
		names: names,
		now:   time.Now,
		title: cases.Title(language.Und),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reply picks the reply for text. The first message ever received is taken
// as the user's name.
func (r *Rules) Reply(ctx context.Context, text string) (string, error) {
	input := strings.ToLower(text)

	r.mu.Lock()
	name, ok, err := r.names.Name(ctx)
	if err != nil {
		r.mu.Unlock()
		return "", fmt.Errorf("load name: %w", err)
	}
	if !ok {
		name = r.title.String(strings.TrimSpace(input))
		if err := r.names.SetName(ctx, name); err != nil {
			r.mu.Unlock()
			return "", fmt.Errorf("remember name: %w", err)
		}
		r.mu.Unlock()
		return fmt.Sprintf("Nice to meet you, %s! 😊 How are you feeling today? (happy/sad/stressed etc.)", name), nil
	}
	r.mu.Unlock()

	switch {
	case sadPattern.MatchString(input):
		return fmt.Sprintf("Oh no %s 😔! Here's something to cheer you up: ‘The sun will rise and we will try again.’ ☀️", name), nil
	case happyPattern.MatchString(input):
		return fmt.Sprintf("That's amazing to hear, %s! 😄 Keep shining like you are! ✨", name), nil
	case stressedPattern.MatchString(input):
		return fmt.Sprintf("Take a deep breath, %s 😌. Here's a calming quote: ‘Peace begins with a smile.’ ", name), nil
	case greetingPattern.MatchString(input):
		return GreetingReply, nil
	case timePattern.MatchString(input):
		return fmt.Sprintf("It's currently %s ⏰", r.now().Format("03:04 PM")), nil
	case goodbyePattern.MatchString(input):
		return fmt.Sprintf("Goodbye %s! Take care and come back anytime 💙", name), nil
	default:
		return FallbackReply, nil
	}
}
