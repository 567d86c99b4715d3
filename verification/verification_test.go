package verification

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentCode struct {
	email string
	code  string
}

type recordingNotifier struct {
	sent []sentCode
}

func (n *recordingNotifier) SendCode(email, code string) {
	n.sent = append(n.sent, sentCode{email: email, code: code})
}

func sequence(codes ...string) CodeSource {
	i := 0
	return CodeSourceFunc(func() string {
		code := codes[i%len(codes)]
		i++
		return code
	})
}

func newTestService(codes CodeSource) (*Service, *recordingNotifier, *ManualScheduler) {
	notifier := &recordingNotifier{}
	scheduler := &ManualScheduler{}
	return NewService(codes, notifier, scheduler), notifier, scheduler
}

func TestRandomCodeRange(t *testing.T) {
	for range 1000 {
		code := RandomCode()
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestIssue(t *testing.T) {
	svc, notifier, scheduler := newTestService(sequence("111111"))

	code := svc.Issue("ana@x.com")

	assert.Equal(t, "111111", code)
	assert.Equal(t, "111111", svc.Code())
	assert.Equal(t, ResendCooldownSeconds, svc.Cooldown())
	assert.Equal(t, []sentCode{{email: "ana@x.com", code: "111111"}}, notifier.sent)
	assert.Equal(t, 1, scheduler.Active())
	assert.True(t, svc.Ticking())
}

func TestCooldownTicksDownAndStops(t *testing.T) {
	svc, _, scheduler := newTestService(sequence("111111"))
	svc.Issue("ana@x.com")

	scheduler.Advance(10 * time.Second)
	assert.Equal(t, 50, svc.Cooldown())

	scheduler.Advance(time.Minute)
	assert.Equal(t, 0, svc.Cooldown())
	assert.Equal(t, 0, scheduler.Active())
	assert.False(t, svc.Ticking())
}

func TestResendDuringCooldownIsNoop(t *testing.T) {
	svc, notifier, _ := newTestService(sequence("111111", "222222"))
	svc.Issue("ana@x.com")

	code, resent := svc.Resend("ana@x.com")

	assert.False(t, resent)
	assert.Equal(t, "111111", code)
	assert.Equal(t, "111111", svc.Code())
	assert.Len(t, notifier.sent, 1)
}

func TestResendAfterCooldown(t *testing.T) {
	svc, notifier, scheduler := newTestService(sequence("111111", "222222"))
	svc.Issue("ana@x.com")
	scheduler.Advance(ResendCooldownSeconds * time.Second)
	require.Equal(t, 0, svc.Cooldown())

	code, resent := svc.Resend("ana@x.com")

	assert.True(t, resent)
	assert.Equal(t, "222222", code)
	assert.Equal(t, ResendCooldownSeconds, svc.Cooldown())
	assert.Len(t, notifier.sent, 2)
	assert.Equal(t, 1, scheduler.Active())
}

func TestReissueReplacesTickTask(t *testing.T) {
	svc, _, scheduler := newTestService(sequence("111111", "222222"))
	svc.Issue("ana@x.com")
	scheduler.Advance(5 * time.Second)

	svc.Issue("ana@x.com")
	scheduler.Advance(5 * time.Second)

	assert.Equal(t, 55, svc.Cooldown(), "only one task must be ticking")
	assert.Equal(t, 1, scheduler.Active())
}

func TestReset(t *testing.T) {
	svc, _, scheduler := newTestService(sequence("111111"))
	svc.Issue("ana@x.com")

	svc.Reset()
	scheduler.Advance(5 * time.Second)

	assert.Empty(t, svc.Code())
	assert.Equal(t, 0, svc.Cooldown())
	assert.Equal(t, 0, scheduler.Active())
}

func TestTickAtZeroStaysZero(t *testing.T) {
	svc, _, _ := newTestService(nil)

	assert.False(t, svc.Tick())
	assert.Equal(t, 0, svc.Cooldown())
}

func TestManualSchedulerCarriesPartialIntervals(t *testing.T) {
	scheduler := &ManualScheduler{}
	runs := 0
	scheduler.Every(time.Second, func() bool {
		runs++
		return true
	})

	scheduler.Advance(500 * time.Millisecond)
	assert.Equal(t, 0, runs)

	scheduler.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, runs)

	scheduler.Advance(1700 * time.Millisecond)
	assert.Equal(t, 2, runs)

	scheduler.Advance(300 * time.Millisecond)
	assert.Equal(t, 3, runs)
}

func TestManualSchedulerStopsTask(t *testing.T) {
	scheduler := &ManualScheduler{}
	runs := 0
	stop := scheduler.Every(time.Second, func() bool {
		runs++
		return runs < 2
	})

	scheduler.Advance(5 * time.Second)
	assert.Equal(t, 2, runs)
	assert.Equal(t, 0, scheduler.Active())

	stop()
	scheduler.Advance(time.Second)
	assert.Equal(t, 2, runs)
}
