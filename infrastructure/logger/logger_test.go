package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

type closeableBuffer struct {
	sync.Mutex
	bytes.Buffer
	closed bool
}

func (cb *closeableBuffer) Write(p []byte) (int, error) {
	cb.Lock()
	defer cb.Unlock()
	return cb.Buffer.Write(p)
}

func (cb *closeableBuffer) Close() error {
	cb.closed = true
	return nil
}

func TestBackendWritesByLevel(t *testing.T) {
	backend := NewBackendWithFlags(0)
	infoWriter := &closeableBuffer{}
	errorWriter := &closeableBuffer{}
	err := backend.AddLogWriter(infoWriter, LevelInfo)
	if err != nil {
		t.Fatalf("TestBackendWritesByLevel: AddLogWriter unexpectedly failed: %s", err)
	}
	err = backend.AddLogWriter(errorWriter, LevelError)
	if err != nil {
		t.Fatalf("TestBackendWritesByLevel: AddLogWriter unexpectedly failed: %s", err)
	}
	err = backend.Run()
	if err != nil {
		t.Fatalf("TestBackendWritesByLevel: Run unexpectedly failed: %s", err)
	}
	if err := backend.AddLogWriter(&closeableBuffer{}, LevelInfo); err == nil {
		t.Fatalf("TestBackendWritesByLevel: AddLogWriter unexpectedly succeeded on a running backend")
	}

	log := backend.Logger("TEST")
	log.SetLevel(LevelDebug)
	log.Tracef("trace %d", 1)
	log.Debugf("debug %d", 2)
	log.Warnf("warn %d", 3)
	log.Errorf("error %d", 4)
	backend.Close()

	if !infoWriter.closed || !errorWriter.closed {
		t.Fatalf("TestBackendWritesByLevel: writers were not closed")
	}
	infoOutput := infoWriter.String()
	if strings.Contains(infoOutput, "trace 1") || strings.Contains(infoOutput, "debug 2") {
		t.Fatalf("TestBackendWritesByLevel: info writer got entries below its level: %q", infoOutput)
	}
	if !strings.Contains(infoOutput, "[WRN] TEST: warn 3") || !strings.Contains(infoOutput, "[ERR] TEST: error 4") {
		t.Fatalf("TestBackendWritesByLevel: info writer is missing entries: %q", infoOutput)
	}
	errorOutput := errorWriter.String()
	if strings.Contains(errorOutput, "warn 3") || !strings.Contains(errorOutput, "error 4") {
		t.Fatalf("TestBackendWritesByLevel: unexpected error writer output: %q", errorOutput)
	}

	// Writes after close are dropped rather than panicking
	log.Errorf("after close")
}

func TestParseAndSetLogLevels(t *testing.T) {
	first := RegisterSubSystem("TST1")
	second := RegisterSubSystem("TST2")
	if RegisterSubSystem("TST1") != first {
		t.Fatalf("TestParseAndSetLogLevels: RegisterSubSystem returned a different logger for the same tag")
	}

	err := ParseAndSetLogLevels("debug")
	if err != nil {
		t.Fatalf("TestParseAndSetLogLevels: unexpected error: %s", err)
	}
	if first.Level() != LevelDebug || second.Level() != LevelDebug {
		t.Fatalf("TestParseAndSetLogLevels: levels were not set to debug")
	}

	err = ParseAndSetLogLevels("TST1=trace,TST2=error")
	if err != nil {
		t.Fatalf("TestParseAndSetLogLevels: unexpected error: %s", err)
	}
	if first.Level() != LevelTrace || second.Level() != LevelError {
		t.Fatalf("TestParseAndSetLogLevels: got levels %s and %s", first.Level(), second.Level())
	}

	tests := []string{"bogus", "TST1=bogus", "NOPE=info", "TST1=info,TST2"}
	for _, test := range tests {
		if err := ParseAndSetLogLevels(test); err == nil {
			t.Errorf("TestParseAndSetLogLevels: expected an error for %q", test)
		}
	}
}
