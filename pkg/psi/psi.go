package psi

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kunlun-party/match/pkg/group"
	"github.com/kunlun-party/match/pkg/netio"
)

// RunSender drains identifiers from ids (n of them, as produced by
// internal/util.Exhaust) and runs the cwPRF PSI sender side over rw.
func RunSender(ctx context.Context, rw io.ReadWriter, n int64, ids <-chan []byte) error {
	y := make([][]byte, 0, n)
	for id := range ids {
		y = append(y, id)
	}

	conn := netio.New(rw)
	nX, err := negotiateSetSize(conn, int64(len(y)))
	if err != nil {
		return fmt.Errorf("psi: negotiating set sizes: %w", err)
	}

	return NewSender(group.Ristretto255).Send(conn, y, nX)
}

// RunReceiver drains identifiers from ids (n of them) and runs the cwPRF
// PSI receiver side over rw, returning the subset present in the sender's
// set, in ids' original order.
func RunReceiver(ctx context.Context, rw io.ReadWriter, n int64, ids <-chan []byte) ([][]byte, error) {
	x := make([][]byte, 0, n)
	for id := range ids {
		x = append(x, id)
	}

	conn := netio.New(rw)
	nY, err := negotiateSetSize(conn, int64(len(x)))
	if err != nil {
		return nil, fmt.Errorf("psi: negotiating set sizes: %w", err)
	}

	return NewReceiver(group.Ristretto255).Intersect(conn, x, nY)
}

// negotiateSetSize exchanges the local set size with the peer over a
// single-element byte vector so each side learns the other's declared set
// size before running the truncation-length-dependent protocol proper.
func negotiateSetSize(conn *netio.Conn, local int64) (int, error) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(local))
	if err := conn.SendByteVector([][]byte{buf[:]}); err != nil {
		return 0, err
	}
	remote, err := conn.ReceiveByteVector()
	if err != nil {
		return 0, err
	}
	if len(remote) != 1 || len(remote[0]) != 8 {
		return 0, fmt.Errorf("psi: malformed set size exchange")
	}
	return int(binary.BigEndian.Uint64(remote[0])), nil
}
