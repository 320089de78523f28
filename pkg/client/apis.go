package client

import (
	"context"
	"encoding/json"
	"net/url"

	pkgerrors "github.com/pkg/errors"

	"github.com/battmon/battmon/pkg/alert"
	"github.com/battmon/battmon/pkg/power"
	"github.com/battmon/battmon/pkg/sysinfo"
)

// SendMailResult mirrors the /api/send-mail response.
type SendMailResult struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
	Sent    bool   `json:"sent"`
}

// GetBatteryStatus returns nil if the daemon has not polled yet.
func (c *Client) GetBatteryStatus(ctx context.Context) (*power.Status, error) {
	ret, err := c.Get(ctx, "/api/battery-status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery status")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ret), &probe); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery status")
	}
	if len(probe) == 0 {
		return nil, nil
	}

	var s power.Status
	if err := json.Unmarshal([]byte(ret), &s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery status")
	}
	return &s, nil
}

func (c *Client) GetAlertHistory(ctx context.Context) ([]alert.Record, error) {
	ret, err := c.Get(ctx, "/api/alert-history")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get alert history")
	}

	var records []alert.Record
	if err := json.Unmarshal([]byte(ret), &records); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal alert history")
	}
	return records, nil
}

// SendMail asks the daemon to send an ad-hoc message. Empty values use the
// daemon's defaults.
func (c *Client) SendMail(ctx context.Context, subject, message string) (*SendMailResult, error) {
	q := url.Values{}
	if subject != "" {
		q.Set("subject", subject)
	}
	if message != "" {
		q.Set("message", message)
	}
	path := "/api/send-mail"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	ret, err := c.Get(ctx, path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to send mail")
	}

	var res SendMailResult
	if err := json.Unmarshal([]byte(ret), &res); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal send-mail result")
	}
	return &res, nil
}

func (c *Client) GetSystemInfo(ctx context.Context) (*sysinfo.Info, error) {
	ret, err := c.Get(ctx, "/api/system-info")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get system info")
	}

	var info sysinfo.Info
	if err := json.Unmarshal([]byte(ret), &info); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal system info")
	}
	return &info, nil
}

func (c *Client) GetAlertConditions(ctx context.Context) (map[string]string, error) {
	ret, err := c.Get(ctx, "/api/alert-conditions")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get alert conditions")
	}

	var conds map[string]string
	if err := json.Unmarshal([]byte(ret), &conds); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal alert conditions")
	}
	return conds, nil
}

func (c *Client) GetVersion(ctx context.Context) (string, error) {
	ret, err := c.Get(ctx, "/api/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}

	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}
