// Package ot implements the Naor-Pinkas 1-out-of-2 base OT: a one-round
// construction over the ristretto255 group whose output seeds ALSZ OT
// extension (pkg/ote). Ported from the teacher's internal/ot/
// naor_pinkas_ristretto.go, generalized from arbitrary-length encrypted
// payloads to fixed 128-bit block messages (the only payload shape base
// OT ever carries once OT extension sits on top of it) and rewritten to
// the spec's S/T/W0/W1 naming instead of the teacher's A/R/K0/K1 naming.
package ot

import (
	"fmt"
)

// ErrBaseCountMismatch is returned when a caller's message/choice slice
// length disagrees with the configured base OT count.
var ErrBaseCountMismatch = fmt.Errorf("ot: slice length does not match configured base OT count")
