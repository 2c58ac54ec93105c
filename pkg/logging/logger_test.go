package logging

import "testing"

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	l.Info("should not panic")
	l.Debug("should not panic")
	l.Warn(nil)
	if l.Level() != LevelDisabled {
		t.Errorf("nil logger Level() = %v, want LevelDisabled", l.Level())
	}
	if l.Sublogger("x") != nil {
		t.Error("Sublogger on a nil logger returned non-nil")
	}
}

func TestLevelGating(t *testing.T) {
	l := NewRoot(LevelWarn, false)
	if !l.enabled(LevelError) || !l.enabled(LevelWarn) {
		t.Error("LevelWarn logger should have error and warn enabled")
	}
	if l.enabled(LevelInfo) || l.enabled(LevelDebug) || l.enabled(LevelTrace) {
		t.Error("LevelWarn logger should not have info/debug/trace enabled")
	}
}

func TestSubloggerInheritsLevelAndPrefix(t *testing.T) {
	l := NewRoot(LevelDebug, false)
	sub := l.Sublogger("parent").Sublogger("child")
	if sub.Level() != LevelDebug {
		t.Errorf("sublogger Level() = %v, want LevelDebug", sub.Level())
	}
	if sub.prefix != "parent.child" {
		t.Errorf("sublogger prefix = %q, want %q", sub.prefix, "parent.child")
	}
}
