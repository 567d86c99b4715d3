// Package verification issues the e-mail verification code and gates
// resends behind a cooldown ticked once per second.
//
// The service owns its tick task: every issue cancels the previous task
// and schedules a new one through the injected Scheduler, and Reset
// cancels it outright, so no tick can land after the owning session ends.
package verification

import (
	"math/rand/v2"
	"strconv"
	"time"
)

const (
	// ResendCooldownSeconds is the wait imposed after every issued code
	ResendCooldownSeconds = 60
	// TickInterval is the cooldown decrement period
	TickInterval = time.Second

	codeMin = 100000
	codeMax = 999999
)

// CodeSource produces fresh verification codes
type CodeSource interface {
	NewCode() string
}

// CodeSourceFunc adapts a function to CodeSource
type CodeSourceFunc func() string

// NewCode calls f
func (f CodeSourceFunc) NewCode() string { return f() }

// Notifier delivers an issued code to the customer. No e-mail transport
// exists, so implementations write it to a developer-visible channel.
type Notifier interface {
	SendCode(email, code string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(email, code string)

// SendCode calls f
func (f NotifierFunc) SendCode(email, code string) { f(email, code) }

// Scheduler runs task every interval until task returns false or the
// returned stop function is called.
type Scheduler interface {
	Every(interval time.Duration, task func() bool) (stop func())
}

// RandomCode returns a 6-digit code drawn uniformly from [100000, 999999]
func RandomCode() string {
	return strconv.Itoa(codeMin + rand.IntN(codeMax-codeMin+1))
}

// Service tracks the issued code and the resend cooldown
type Service struct {
	codes     CodeSource
	notifier  Notifier
	scheduler Scheduler

	code     string
	cooldown int
	stop     func()
}

// NewService creates a Service. A nil CodeSource falls back to RandomCode.
func NewService(codes CodeSource, notifier Notifier, scheduler Scheduler) *Service {
	if codes == nil {
		codes = CodeSourceFunc(RandomCode)
	}
	return &Service{
		codes:     codes,
		notifier:  notifier,
		scheduler: scheduler,
	}
}

// Issue generates a new code, delivers it and restarts the cooldown
func (s *Service) Issue(email string) string {
	s.stopTicking()

	s.code = s.codes.NewCode()
	s.cooldown = ResendCooldownSeconds
	s.notifier.SendCode(email, s.code)
	s.stop = s.scheduler.Every(TickInterval, s.Tick)

	return s.code
}

// Tick decrements the cooldown and reports whether ticking should go on
func (s *Service) Tick() bool {
	if s.cooldown > 0 {
		s.cooldown--
	}
	if s.cooldown == 0 {
		s.stop = nil
		return false
	}
	return true
}

// Resend issues a new code when the cooldown has elapsed. While the
// cooldown is running it does nothing and returns the current code.
func (s *Service) Resend(email string) (string, bool) {
	if s.cooldown > 0 {
		return s.code, false
	}
	return s.Issue(email), true
}

// Reset cancels the tick task and forgets the code
func (s *Service) Reset() {
	s.stopTicking()
	s.code = ""
	s.cooldown = 0
}

// Code returns the issued code, empty when none has been issued
func (s *Service) Code() string { return s.code }

// Cooldown returns the seconds left before a resend is allowed
func (s *Service) Cooldown() int { return s.cooldown }

// Ticking reports whether a tick task is scheduled
func (s *Service) Ticking() bool { return s.stop != nil }

func (s *Service) stopTicking() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}
