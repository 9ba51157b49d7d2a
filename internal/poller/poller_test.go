package poller_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/badu/corosrv/internal/poller"
)

// TestPollerFiresOnceThenStaysSilentUntilReregistered exercises the
// one-shot contract: a second Poll after a fired interest, with no
// intervening Register, must report nothing.
func TestPollerFiresOnceThenStaysSilentUntilReregistered(t *testing.T) {
	fds := make([]int, 2)
	require.NoError(t, unix.Pipe(fds))
	readFD, writeFD := fds[0], fds[1]
	defer unix.Close(readFD)
	defer unix.Close(writeFD)
	require.NoError(t, unix.SetNonblock(readFD, true))

	p, err := poller.New()
	require.NoError(t, err)
	defer p.Close()

	fired := 0
	require.NoError(t, p.Register(readFD, poller.Read, func() { fired++ }))

	_, err = unix.Write(writeFD, []byte("x"))
	require.NoError(t, err)

	out, err := p.Poll(1000, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	out[0]()
	require.Equal(t, 1, fired)

	buf := make([]byte, 1)
	_, err = unix.Read(readFD, buf)
	require.NoError(t, err)

	out, err = p.Poll(50, nil)
	require.NoError(t, err)
	require.Empty(t, out, "second Poll without a subsequent Register must report nothing")
}

// TestPollerKeepsReadAndWriteInterestsIndependentOnSameFD registers
// both a Read and a Write interest on the same fd before either fires,
// exercising the per-(fd, direction) data model: the second Register
// call must not silently overwrite the first direction's continuation.
func TestPollerKeepsReadAndWriteInterestsIndependentOnSameFD(t *testing.T) {
	fds := make([]int, 2)
	require.NoError(t, unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0, fds))
	fd, peer := fds[0], fds[1]
	defer unix.Close(fd)
	defer unix.Close(peer)
	require.NoError(t, unix.SetNonblock(fd, true))

	p, err := poller.New()
	require.NoError(t, err)
	defer p.Close()

	var readFired, writeFired bool
	// fd's send buffer is empty, so Write interest is satisfiable
	// immediately; registering Read afterwards on the same fd must not
	// drop this continuation.
	require.NoError(t, p.Register(fd, poller.Write, func() { writeFired = true }))
	require.NoError(t, p.Register(fd, poller.Read, func() { readFired = true }))

	_, err = unix.Write(peer, []byte("x"))
	require.NoError(t, err)

	out, err := p.Poll(1000, nil)
	require.NoError(t, err)
	for _, cont := range out {
		cont()
	}
	require.True(t, writeFired, "write interest registered before read must still fire")
	require.True(t, readFired, "read interest must fire once data arrives")
}
