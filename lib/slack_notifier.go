package lib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	errBadSlackResponse = fmt.Errorf("received a response status > 299 from slack")
)

// SlackNotifier posts messages to a slack incoming webhook
type SlackNotifier struct {
	hookURL, username, icon string

	cl *http.Client
}

// NewSlackNotifier creates a new *SlackNotifier given an incoming
// webhook url, username and icon emoji
func NewSlackNotifier(hookURL, username, icon string) *SlackNotifier {
	return &SlackNotifier{
		hookURL:  hookURL,
		username: username,
		icon:     icon,
		cl:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends a notification message (msg) to the given channel,
// which may or may not begin with `#`
func (sn *SlackNotifier) Notify(channel, msg string) error {
	if !strings.HasPrefix(channel, "#") {
		channel = fmt.Sprintf("#%s", channel)
	}

	bodyMap := map[string]string{
		"text":       msg,
		"channel":    channel,
		"username":   sn.username,
		"icon_emoji": sn.icon,
	}

	b, err := json.Marshal(bodyMap)
	if err != nil {
		return err
	}

	resp, err := sn.cl.Post(sn.hookURL, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		return errBadSlackResponse
	}

	return nil
}

// FormatReportMessage renders a slack message for newly orphaned
// instances
func FormatReportMessage(reports []*Report) string {
	lines := []string{
		fmt.Sprintf("Found %d running instance(s) unknown to chef :ghost:", len(reports)),
	}

	for _, report := range reports {
		line := fmt.Sprintf("• `%s`", report.ID)
		if len(report.Details) > 0 {
			d := report.Details[0]
			if name, ok := d.Tags["Name"]; ok {
				line += fmt.Sprintf(" name=*%s*", name)
			}
			line += fmt.Sprintf(" key=%s", d.KeyName)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
