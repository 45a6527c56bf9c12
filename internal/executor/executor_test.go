package executor

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eminbuyuk/lxmon/internal/agentmetrics"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		timedOut    bool
		wantCode    int
		wantOutcome string
	}{
		{"success", nil, false, 0, agentmetrics.OutcomeSuccess},
		{"deadline kill", errors.New("signal: killed"), true, 1, agentmetrics.OutcomeTimeout},
		{"kill raced a clean exit", nil, true, 0, agentmetrics.OutcomeSuccess},
		{"start failure", exec.ErrNotFound, false, 1, agentmetrics.OutcomeStartErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, outcome := classify(&exec.Cmd{}, tt.err, tt.timedOut)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantOutcome, outcome)
		})
	}
}
