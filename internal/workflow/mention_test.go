package workflow

import (
	"reflect"
	"testing"

	"github.com/amittambulkar96/nexus/internal/store"
)

func TestExtractMentions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		want    []string
	}{
		{"none", "just a plain comment", nil},
		{"single", "hey @Alice can you look?", []string{"Alice"}},
		{"multiple", "@Alice and @Bob please review", []string{"Alice", "Bob"}},
		{"dedup exact", "@Alice @Alice @Alice", []string{"Alice"}},
		{"case variants kept", "@Alice @alice", []string{"Alice", "alice"}},
		{"hyphen and underscore", "ping @deploy-bot_2", []string{"deploy-bot_2"}},
		{"stops at space", "@Alice Chen should see this", []string{"Alice"}},
		{"bare at", "meet @ noon", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractMentions(tc.content)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractMentions(%q) = %v, want %v", tc.content, got, tc.want)
			}
		})
	}
}

func TestResolveMentions(t *testing.T) {
	t.Parallel()

	roster := []store.Agent{
		{AgentID: "a1", Name: "Alice"},
		{AgentID: "a2", Name: "Bob"},
		{AgentID: "a3", Name: "Alice Chen"},
	}

	ids := func(agents []store.Agent) []string {
		var out []string
		for _, a := range agents {
			out = append(out, a.AgentID)
		}
		return out
	}

	cases := []struct {
		name    string
		content string
		want    []string
	}{
		{"no mentions", "nothing to see", nil},
		{"exact", "@Alice please", []string{"a1"}},
		{"case insensitive", "@alice please", []string{"a1"}},
		{"unknown dropped", "@Carol anyone?", nil},
		{"two agents", "@Bob then @Alice", []string{"a2", "a1"}},
		{"case variants resolve once", "@Alice @alice @ALICE", []string{"a1"}},
		{"no partial match", "@Ali close but no", nil},
		{"name with space unreachable", "@Alice Chen", []string{"a1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ResolveMentions(tc.content, roster)
			if !reflect.DeepEqual(ids(got), tc.want) {
				t.Errorf("ResolveMentions(%q) = %v, want %v", tc.content, ids(got), tc.want)
			}
		})
	}
}
