package infra

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// conexões do go-redis fechadas no t.Cleanup ainda podem estar encerrando.
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}
