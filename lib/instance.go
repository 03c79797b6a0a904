package lib

import "time"

// Instance is the internal representation of a running EC2 instance
// as seen by the cloud inventory
type Instance struct {
	InstanceID       string     `json:"instanceId"`
	PublicIPAddress  string     `json:"publicIpAddress,omitempty"`
	PrivateIPAddress string     `json:"privateIpAddress,omitempty"`
	KeyName          *string    `json:"keyName,omitempty"`
	LaunchTime       *time.Time `json:"launchTime,omitempty"`
	Tags             []Tag      `json:"tags,omitempty"`
	SecurityGroups   []string   `json:"securityGroups,omitempty"`
}

// Tag is a single instance tag. Either half may be missing.
type Tag struct {
	Key   *string `json:"key,omitempty"`
	Value *string `json:"value,omitempty"`
}

// Addresses returns the public and private ip addresses, either of
// which may be empty
func (inst *Instance) Addresses() (string, string) {
	return inst.PublicIPAddress, inst.PrivateIPAddress
}
