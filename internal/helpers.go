package internal

import (
	"fmt"
	"time"
)

func AssertNoError(err error, because string) {
	if err != nil {
		panic(fmt.Errorf("error unexpected because %s: %w", because, err))
	}
}

// UtcNow is the clock of all recorded save events. Tests replace it to obtain distinct timestamps.
var UtcNow = func() time.Time {
	return time.Now().UTC()
}
