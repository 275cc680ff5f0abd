package workflow

import (
	"regexp"
	"strings"

	"github.com/amittambulkar96/nexus/internal/store"
)

// mentionPattern matches @handle tokens in message content. Handles are
// alphanumeric plus underscore and hyphen; anything else ends the token.
var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_-]+)`)

// ExtractMentions returns the raw handles mentioned in content, in order of
// first appearance, with exact-duplicate handles removed.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	handles := make([]string, 0, len(matches))
	for _, m := range matches {
		h := m[1]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		handles = append(handles, h)
	}
	return handles
}

// ResolveMentions maps the handles mentioned in content onto the agent
// roster. A handle matches an agent when it equals the agent's full name
// case-insensitively; there is no partial or fuzzy matching. Handles that
// match no agent are dropped. Each agent appears at most once regardless of
// how many handle spellings reached it.
func ResolveMentions(content string, roster []store.Agent) []store.Agent {
	handles := ExtractMentions(content)
	if len(handles) == 0 {
		return nil
	}
	var (
		out     []store.Agent
		claimed = make(map[string]struct{}, len(handles))
	)
	for _, h := range handles {
		lower := strings.ToLower(h)
		for _, a := range roster {
			if strings.ToLower(a.Name) != lower {
				continue
			}
			if _, ok := claimed[a.AgentID]; !ok {
				claimed[a.AgentID] = struct{}{}
				out = append(out, a)
			}
			break
		}
	}
	return out
}
