package ipc

import (
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const dialTimeout = 2 * time.Second

// Client talks to a running daemon over its unix socket.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the daemon socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return &Client{
		conn:   conn,
		client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)),
	}, nil
}

// Close releases the socket connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Stop asks the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	resp := &StopResponse{}
	if err := c.client.Call("Ripwatch.Stop", StopRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Status fetches the daemon's current state.
func (c *Client) Status() (*StatusResponse, error) {
	resp := &StatusResponse{}
	if err := c.client.Call("Ripwatch.Status", StatusRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// History fetches recent rip sessions, newest first.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	resp := &HistoryResponse{}
	if err := c.client.Call("Ripwatch.History", HistoryRequest{Limit: limit}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// HistoryClear deletes all rip history.
func (c *Client) HistoryClear() (*HistoryClearResponse, error) {
	resp := &HistoryClearResponse{}
	if err := c.client.Call("Ripwatch.HistoryClear", HistoryClearRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// HistoryStats fetches rip counts grouped by final state.
func (c *Client) HistoryStats() (*HistoryStatsResponse, error) {
	resp := &HistoryStatsResponse{}
	if err := c.client.Call("Ripwatch.HistoryStats", HistoryStatsRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Eject cancels any active session on the device and opens its tray.
func (c *Client) Eject(device string) (*EjectResponse, error) {
	resp := &EjectResponse{}
	if err := c.client.Call("Ripwatch.Eject", EjectRequest{Device: device}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// TestNotification sends a test message through the daemon's notifier.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	resp := &TestNotificationResponse{}
	if err := c.client.Call("Ripwatch.TestNotification", TestNotificationRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// LogTail reads lines from the daemon's log file.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	resp := &LogTailResponse{}
	if err := c.client.Call("Ripwatch.LogTail", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
