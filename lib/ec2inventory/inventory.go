// Package ec2inventory lists running EC2 instances for reconciliation
package ec2inventory

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/re-pronin/reddalert/lib"
	"github.com/sirupsen/logrus"
)

// Inventory fetches running instances and tracks the since watermark
// of the last successful pass
type Inventory struct {
	conn ec2.DescribeInstancesAPIClient
	log  logrus.FieldLogger

	mu    sync.Mutex
	since time.Time
}

// New builds an *Inventory around an EC2 API client
func New(conn ec2.DescribeInstancesAPIClient, since time.Time, log logrus.FieldLogger) *Inventory {
	return &Inventory{
		conn:  conn,
		since: since,
		log:   log,
	}
}

// NewFromCredentials builds an EC2 client for the region, using static
// credentials when a key is given and the default chain otherwise
func NewFromCredentials(ctx context.Context, key, secret, region string, since time.Time, log logrus.FieldLogger) (*Inventory, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if key != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return New(ec2.NewFromConfig(awsCfg), since, log), nil
}

// Since returns the current watermark
func (inv *Inventory) Since() time.Time {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.since
}

// Advance moves the watermark forward; it never moves backwards
func (inv *Inventory) Advance(t time.Time) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if t.After(inv.since) {
		inv.since = t
	}
}

// FetchInstances pages through all instances in a state of "running"
func (inv *Inventory) FetchInstances(ctx context.Context) ([]*lib.Instance, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("instance-state-name"), Values: []string{"running"}},
		},
	}

	instances := []*lib.Instance{}
	pages := ec2.NewDescribeInstancesPaginator(inv.conn, input)
	for pages.HasMorePages() {
		out, err := pages.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, res := range out.Reservations {
			for _, inst := range res.Instances {
				instances = append(instances, convertInstance(inst))
			}
		}
	}

	inv.log.WithField("count", len(instances)).Debug("fetched running instances")
	return instances, nil
}

func convertInstance(inst types.Instance) *lib.Instance {
	out := &lib.Instance{
		InstanceID:       aws.ToString(inst.InstanceId),
		PublicIPAddress:  aws.ToString(inst.PublicIpAddress),
		PrivateIPAddress: aws.ToString(inst.PrivateIpAddress),
		KeyName:          inst.KeyName,
		LaunchTime:       inst.LaunchTime,
		SecurityGroups:   []string{},
	}

	for _, tag := range inst.Tags {
		out.Tags = append(out.Tags, lib.Tag{Key: tag.Key, Value: tag.Value})
	}

	for _, sg := range inst.SecurityGroups {
		if sg.GroupId != nil {
			out.SecurityGroups = append(out.SecurityGroups, *sg.GroupId)
		}
	}

	return out
}
