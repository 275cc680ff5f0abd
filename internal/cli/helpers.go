package cli

import (
	"github.com/amittambulkar96/nexus/internal/store"
	"github.com/amittambulkar96/nexus/internal/workflow"
)

// openService opens the SQLite store under home and wraps it in a workflow
// service with activity logging wired. The caller must invoke the returned
// close func.
func openService(home string) (*workflow.Service, func(), error) {
	st, err := store.Open(home)
	if err != nil {
		return nil, nil, err
	}
	svc := workflow.New(st, workflow.WithHook(workflow.ActivityRecorder(st)))
	return svc, func() { _ = st.Close() }, nil
}
