package disc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ripwatch/internal/services"
)

type stubExecutor struct {
	output []byte
	err    error

	gotBinary string
	gotArgs   []string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	s.gotBinary = binary
	s.gotArgs = args
	return s.output, s.err
}

func TestScanBuildsRobotArguments(t *testing.T) {
	exec := &stubExecutor{output: []byte(sampleInfoOutput)}
	scanner := NewScannerWithExecutor("/opt/makemkv/bin/makemkvcon", exec)

	contents, err := scanner.Scan(context.Background(), "/dev/sr0")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if exec.gotBinary != "/opt/makemkv/bin/makemkvcon" {
		t.Errorf("binary = %q", exec.gotBinary)
	}
	want := []string{"-r", "--cache=1", "info", "dev:/dev/sr0", "--robot"}
	if strings.Join(exec.gotArgs, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", exec.gotArgs, want)
	}
	if len(contents.Tracks) != 2 {
		t.Errorf("got %d tracks, want 2", len(contents.Tracks))
	}
}

func TestScanEmptyDriveReturnsNotFound(t *testing.T) {
	exec := &stubExecutor{output: []byte("DRV:0,0,999,0,\"BD-RE\",\"\",\"/dev/sr0\"\n")}
	scanner := NewScannerWithExecutor("makemkvcon", exec)

	_, err := scanner.Scan(context.Background(), "/dev/sr0")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestScanCommandFailureIsUnreadable(t *testing.T) {
	output := "MSG:5010,0,1,\"Failed to open disc\",\"Failed to open disc\"\n"
	exec := &stubExecutor{output: []byte(output), err: errors.New("exit status 1")}
	scanner := NewScannerWithExecutor("makemkvcon", exec)

	_, err := scanner.Scan(context.Background(), "/dev/sr0")
	if !errors.Is(err, services.ErrUnreadableMedia) {
		t.Fatalf("err = %v, want ErrUnreadableMedia", err)
	}
	if !strings.Contains(err.Error(), "Failed to open disc") {
		t.Errorf("error should carry robot message text: %v", err)
	}
}

func TestScanNoTitlesIsUnreadable(t *testing.T) {
	output := "DRV:0,2,999,12,\"BD-RE\",\"BLANK_DISC\",\"/dev/sr0\"\nCINFO:2,0,\"BLANK_DISC\"\n"
	exec := &stubExecutor{output: []byte(output)}
	scanner := NewScannerWithExecutor("makemkvcon", exec)

	_, err := scanner.Scan(context.Background(), "/dev/sr0")
	if !errors.Is(err, services.ErrUnreadableMedia) {
		t.Fatalf("err = %v, want ErrUnreadableMedia", err)
	}
}

func TestScanCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &stubExecutor{err: context.Canceled}
	scanner := NewScannerWithExecutor("makemkvcon", exec)

	_, err := scanner.Scan(ctx, "/dev/sr0")
	if !services.IsCancelled(err) {
		t.Fatalf("err = %v, want cancellation", err)
	}
}

func TestNormalizeDeviceArg(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/dev/sr0", "dev:/dev/sr0"},
		{"dev:/dev/sr1", "dev:/dev/sr1"},
		{"disc:0", "disc:0"},
		{"", "disc:0"},
	}
	for _, tc := range cases {
		if got := normalizeDeviceArg(tc.in); got != tc.want {
			t.Errorf("normalizeDeviceArg(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
