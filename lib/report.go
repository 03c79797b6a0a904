package lib

import (
	"fmt"
	"strings"
)

const (
	// PluginName labels every report produced by the reconciler
	PluginName = "non_chef"

	missingKeyName = "None"
)

// ReportsCollection is the collection representation used in jsonapi
// bodies
type ReportsCollection struct {
	Reports []*Report `json:"reports"`
}

// Report describes one running instance that chef does not know about
type Report struct {
	ID         string          `json:"id"`
	PluginName string          `json:"plugin_name"`
	Details    []*ReportDetail `json:"details"`
}

// ReportDetail is the descriptive metadata attached to a report
type ReportDetail struct {
	KeyName        string            `json:"keyName"`
	SecurityGroups []string          `json:"securityGroups"`
	Tags           map[string]string `json:"tags"`
}

// NewReport builds the report for an unregistered instance
func NewReport(inst *Instance) *Report {
	return &Report{
		ID:         Identity(inst),
		PluginName: PluginName,
		Details:    []*ReportDetail{Project(inst)},
	}
}

// Identity renders "<instance id> (<public ip> / <private ip>)"
func Identity(inst *Instance) string {
	public, private := inst.Addresses()
	return fmt.Sprintf("%s (%s / %s)", inst.InstanceID, public, private)
}

// Project extracts the key name, security groups and tags of an
// instance. Tags missing either a key or a value are dropped.
func Project(inst *Instance) *ReportDetail {
	detail := &ReportDetail{
		KeyName:        missingKeyName,
		SecurityGroups: []string{},
		Tags:           map[string]string{},
	}

	if inst.KeyName != nil {
		detail.KeyName = *inst.KeyName
	}

	if inst.SecurityGroups != nil {
		detail.SecurityGroups = append(detail.SecurityGroups, inst.SecurityGroups...)
	}

	for _, tag := range inst.Tags {
		if tag.Key == nil || tag.Value == nil {
			continue
		}
		detail.Tags[*tag.Key] = *tag.Value
	}

	return detail
}

// InstanceID returns the instance id portion of the report id
func (r *Report) InstanceID() string {
	id, _, _ := strings.Cut(r.ID, " ")
	return id
}
