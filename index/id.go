package index

import (
	"fmt"
	"strconv"
	"time"
)

// synthesizeID builds an external id for callers that omit one. Pairing
// the microsecond timestamp with the monotonic internal key guarantees
// uniqueness even when two inserts land on the same microsecond tick.
func synthesizeID(key uint64) string {
	micros := time.Now().UnixMicro()
	return fmt.Sprintf("%s-%s", strconv.FormatInt(micros, 16), strconv.FormatUint(key, 10))
}
