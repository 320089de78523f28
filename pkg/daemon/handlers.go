package daemon

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/battmon/battmon/pkg/alert"
	"github.com/battmon/battmon/pkg/config"
	"github.com/battmon/battmon/pkg/events"
	"github.com/battmon/battmon/pkg/version"
)

const (
	defaultMailSubject = "Test Subject"
	defaultMailMessage = "Test Message"
)

// SendMailResponse is returned by /api/send-mail.
type SendMailResponse struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
	Sent    bool   `json:"sent"`
}

func (d *Daemon) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Version": version.Version,
	})
}

func (d *Daemon) getBatteryStatus(c *gin.Context) {
	s := d.poller.Current()
	if s == nil {
		c.IndentedJSON(http.StatusOK, gin.H{})
		return
	}
	c.IndentedJSON(http.StatusOK, s)
}

func (d *Daemon) getAlertHistory(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, d.engine.History())
}

func (d *Daemon) sendMail(c *gin.Context) {
	subject := c.DefaultQuery("subject", defaultMailSubject)
	message := c.DefaultQuery("message", defaultMailMessage)

	rec := d.engine.Send(c.Request.Context(), subject, message, d.conf.AlertEmails())

	c.IndentedJSON(http.StatusOK, SendMailResponse{
		Subject: subject,
		Message: message,
		Sent:    rec.Sent,
	})
}

func (d *Daemon) getSystemInfo(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, d.sysinfo.Collect(c.Request.Context()))
}

func (d *Daemon) getAlertConditions(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, alert.Conditions(config.AlertSettings(d.conf)))
}

func (d *Daemon) streamEvents(c *gin.Context) {
	ch := d.hub.Subscribe()
	defer d.hub.Unsubscribe(ch)

	logrus.WithField("remote", c.ClientIP()).Debug("event stream opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// Send the current status first so new clients do not wait a full
	// check interval.
	if s := d.poller.Current(); s != nil {
		b, err := json.Marshal(events.StatusUpdatedEvent{Status: *s, Ts: s.Timestamp.Unix()})
		if err == nil {
			c.SSEvent(events.StatusUpdated, string(b))
			c.Writer.Flush()
		}
	}

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-d.done:
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})

	logrus.WithField("remote", c.ClientIP()).Debug("event stream closed")
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
