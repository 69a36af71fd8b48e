package services_test

import (
	"context"
	"testing"

	"ripwatch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithDevice(ctx, "/dev/sr0")
	ctx = services.WithSessionID(ctx, "sess-42")
	ctx = services.WithRequestID(ctx, "req-123")

	if device, ok := services.DeviceFromContext(ctx); !ok || device != "/dev/sr0" {
		t.Fatalf("unexpected device: %v %v", device, ok)
	}
	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "sess-42" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestDeviceBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithDevice(ctx, "")
	if _, ok := services.DeviceFromContext(ctx); ok {
		t.Fatal("expected no device value")
	}
}
