package options

import (
	"errors"
	"testing"
	"time"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/stretchr/testify/require"
)

type testSettings struct {
	tail     int
	follow   bool
	interval time.Duration
	lastCall string
}

var errNegative = errors.New("tail cannot be negative")

func withTail(n int) Option[*testSettings] {
	return New(func(s *testSettings) error {
		if n < 0 {
			return errNegative
		}
		s.tail = n
		s.lastCall = "tail"

		return nil
	})
}

func withFollow(follow bool) Option[*testSettings] {
	return NoError(func(s *testSettings) {
		s.follow = follow
		s.lastCall = "follow"
	})
}

func withInterval(d time.Duration) Option[*testSettings] {
	return New(func(s *testSettings) error {
		if d <= 0 {
			return errs.ErrInvalidInterval
		}
		s.interval = d
		s.lastCall = "interval"

		return nil
	})
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		s := &testSettings{}
		err := Apply(s, withTail(10), withFollow(true), withInterval(time.Second))
		require.NoError(t, err)
		require.Equal(t, 10, s.tail)
		require.True(t, s.follow)
		require.Equal(t, time.Second, s.interval)
		require.Equal(t, "interval", s.lastCall)
	})

	t.Run("stops at first error", func(t *testing.T) {
		s := &testSettings{}
		err := Apply(s, withTail(5), withTail(-1), withFollow(true))
		require.Error(t, err)
		require.ErrorIs(t, err, errNegative)
		require.ErrorIs(t, err, errs.ErrInvalidConfig)
		require.Contains(t, err.Error(), "option 1")
		require.Equal(t, 5, s.tail)
		require.False(t, s.follow)
	})

	t.Run("keeps sentinel of failing option", func(t *testing.T) {
		s := &testSettings{}
		err := Apply(s, withInterval(0))
		require.ErrorIs(t, err, errs.ErrInvalidInterval)
		require.ErrorIs(t, err, errs.ErrInvalidConfig)
	})

	t.Run("skips nil options", func(t *testing.T) {
		s := &testSettings{}
		err := Apply(s, nil, withFollow(true))
		require.NoError(t, err)
		require.True(t, s.follow)
	})

	t.Run("empty option list", func(t *testing.T) {
		s := &testSettings{}
		require.NoError(t, Apply(s))
		require.Equal(t, testSettings{}, *s)
	})
}

func TestOption_GenericsWithPrimitive(t *testing.T) {
	var num int
	opt := NoError(func(n *int) { *n = 42 })

	require.NoError(t, opt.apply(&num))
	require.Equal(t, 42, num)
}
