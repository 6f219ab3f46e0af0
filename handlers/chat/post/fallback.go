package post

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Random selects the fallback template.
type Random interface {
	IntN(n int) int
}

// NewRandom returns a Random that is safe for concurrent use.
func NewRandom(seed1, seed2 uint64) Random {
	return &lockedRandom{r: rand.New(rand.NewPCG(seed1, seed2))}
}

type lockedRandom struct {
	m sync.Mutex
	r *rand.Rand
}

func (lr *lockedRandom) IntN(n int) int {
	lr.m.Lock()
	defer lr.m.Unlock()
	return lr.r.IntN(n)
}

var unavailableTemplates = []string{
	"I understand you said: '%s'. I'm currently unable to connect to the AI service, but I'm here to help!",
	"Thanks for your message: '%s'. The AI service is temporarily unavailable, but I received your input.",
	"I see you wrote: '%s'. I'm having trouble connecting to the main AI service right now.",
}

func UnavailableReply(random Random, message string) string {
	i := random.IntN(len(unavailableTemplates))
	return fmt.Sprintf(unavailableTemplates[i], message)
}

func TimeoutReply(message string) string {
	return fmt.Sprintf("I received your message: '%s'. The AI service is taking too long to respond, but I'm here to help!", message)
}

func ErrorReply(err error) string {
	return fmt.Sprintf("AI backend error: %v", err)
}
