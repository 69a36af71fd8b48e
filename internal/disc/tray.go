package disc

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"ripwatch/internal/services"
)

// ioctlDriveStatus is CDROM_DRIVE_STATUS from linux/cdrom.h.
const ioctlDriveStatus = 0x5326

// DriveStatus mirrors the kernel's CDROM_DRIVE_STATUS results.
type DriveStatus int

const (
	StatusUnknown  DriveStatus = iota // CDS_NO_INFO
	StatusNoDisc                      // CDS_NO_DISC
	StatusTrayOpen                    // CDS_TRAY_OPEN
	StatusNotReady                    // CDS_DRIVE_NOT_READY
	StatusDiscOK                      // CDS_DISC_OK
)

func (s DriveStatus) String() string {
	switch s {
	case StatusNoDisc:
		return "no disc"
	case StatusTrayOpen:
		return "tray open"
	case StatusNotReady:
		return "not ready"
	case StatusDiscOK:
		return "disc ok"
	default:
		return "unknown"
	}
}

// Status asks the kernel whether device currently holds usable media.
// It never reads the disc itself, so polling it is cheap.
func Status(device string) (DriveStatus, error) {
	fd, err := unix.Open(device, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return StatusUnknown, services.Wrap(services.ErrConfiguration, "disc", "status", fmt.Sprintf("open %s", device), err)
	}
	defer unix.Close(fd)

	ret, err := unix.IoctlRetInt(fd, ioctlDriveStatus)
	if err != nil {
		return StatusUnknown, services.Wrap(services.ErrExternalTool, "disc", "status", fmt.Sprintf("drive status ioctl on %s", device), err)
	}
	if ret < int(StatusUnknown) || ret > int(StatusDiscOK) {
		return StatusUnknown, nil
	}
	return DriveStatus(ret), nil
}

// WaitForReady polls device until the kernel reports loaded media,
// giving a freshly inserted disc time to spin up. A status read error
// is returned immediately since waiting cannot repair a missing or
// unopenable device. It returns ErrTimeout when the drive never
// settles and ErrCancelled when ctx ends first.
func WaitForReady(ctx context.Context, device string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		status, err := Status(device)
		if err != nil {
			return err
		}
		if status == StatusDiscOK {
			return nil
		}
		if time.Now().After(deadline) {
			return services.Wrap(services.ErrTimeout, "disc", "wait", fmt.Sprintf("drive %s not ready after %s (status %s)", device, timeout, status), nil)
		}
		select {
		case <-ctx.Done():
			return services.Wrap(services.ErrCancelled, "disc", "wait", "wait for drive interrupted", ctx.Err())
		case <-time.After(time.Second):
		}
	}
}
