package worktime

import (
	"time"

	"github.com/graphql-nexus/nexus-plugin-prisma/internal/reactor"
)

func waitDebounce() {
	time.Sleep(reactor.DebounceWindow + 10*time.Millisecond)
}
