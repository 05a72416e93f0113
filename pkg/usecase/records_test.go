package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

const testTagPrefix = "fn.drover.dev/update-route53-host-records"

type mockAccountClient struct {
	account *model.Account

	describeCalls []string
	assumedARNs   []string
}

func (m *mockAccountClient) DescribeAccount(ctx context.Context, accountID string) (*model.Account, error) {
	m.describeCalls = append(m.describeCalls, accountID)
	if m.account == nil {
		return nil, errors.New("account not found")
	}
	return m.account, nil
}

func (m *mockAccountClient) AssumeRole(ctx context.Context, roleARN, sessionName string) (*model.Credentials, error) {
	m.assumedARNs = append(m.assumedARNs, roleARN)
	if !strings.HasPrefix(sessionName, "drover-") {
		return nil, errors.New("unexpected session name: " + sessionName)
	}
	return &model.Credentials{AccessKeyID: "AKIA_TEST"}, nil
}

type recordChange struct {
	Action model.ChangeAction
	Record model.Record
}

type mockRoute53Client struct {
	zones    []model.HostedZone
	zoneVPCs map[string][]string

	changes []recordChange
}

func (m *mockRoute53Client) ListZones(ctx context.Context) ([]model.HostedZone, error) {
	return m.zones, nil
}

func (m *mockRoute53Client) ZoneVPCs(ctx context.Context, zoneID string) ([]string, error) {
	return m.zoneVPCs[zoneID], nil
}

func (m *mockRoute53Client) ChangeRecord(ctx context.Context, action model.ChangeAction, record model.Record) error {
	m.changes = append(m.changes, recordChange{Action: action, Record: record})
	return nil
}

type mockRecordStore struct {
	saved   map[string][]model.Record
	deleted []string
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{saved: map[string][]model.Record{}}
}

func (m *mockRecordStore) Save(ctx context.Context, instanceID string, records []model.Record) error {
	m.saved[instanceID] = records
	return nil
}

func (m *mockRecordStore) Load(ctx context.Context, instanceID string) ([]model.Record, error) {
	records, ok := m.saved[instanceID]
	if !ok {
		return nil, goerr.New("record entry not found", goerr.T(types.ErrTagNotFound))
	}
	return records, nil
}

func (m *mockRecordStore) Delete(ctx context.Context, instanceID string) error {
	m.deleted = append(m.deleted, instanceID)
	delete(m.saved, instanceID)
	return nil
}

type mockEC2Client struct {
	instance  *model.Instance
	vpcDomain string
}

func (m *mockEC2Client) DescribeInstance(ctx context.Context, instanceID string) (*model.Instance, error) {
	if m.instance == nil || m.instance.ID != instanceID {
		return nil, errors.New("instance not found: " + instanceID)
	}
	return m.instance, nil
}

func (m *mockEC2Client) VPCDomainName(ctx context.Context, vpcID string) (string, error) {
	return m.vpcDomain, nil
}

func ec2Factory(client *mockEC2Client, calls *[]string) interfaces.EC2ClientFactory {
	return func(ctx context.Context, region string, creds *model.Credentials) (interfaces.EC2Client, error) {
		*calls = append(*calls, region)
		return client, nil
	}
}

func enabledAccount(extraTags map[string]string) *model.Account {
	tags := map[string]string{
		testTagPrefix + "/account/state": "enabled",
	}
	for k, v := range extraTags {
		tags[k] = v
	}
	return &model.Account{ID: "123456789012", Name: "sandbox", Tags: tags}
}

func TestHandleStateChange_IgnoresNonActionableState(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccountClient{account: enabledAccount(nil)}
	uc := usecase.NewRecords(model.LoadSettings(), accounts, &mockRoute53Client{}, newMockRecordStore(), nil)

	err := uc.HandleStateChange(ctx, &model.StateChangeEvent{
		Account:    "123456789012",
		Region:     "us-east-1",
		InstanceID: "i-0123",
		State:      "pending",
	})
	gt.NoError(t, err)
	gt.Number(t, len(accounts.describeCalls)).Equal(0)
}

func TestHandleStateChange_SkipsDisabledAccount(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccountClient{
		account: &model.Account{ID: "123456789012", Name: "prod", Tags: map[string]string{}},
	}
	uc := usecase.NewRecords(model.LoadSettings(), accounts, &mockRoute53Client{}, newMockRecordStore(), nil)

	err := uc.HandleStateChange(ctx, &model.StateChangeEvent{
		Account:    "123456789012",
		Region:     "us-east-1",
		InstanceID: "i-0123",
		State:      model.StateRunning,
	})
	gt.NoError(t, err)
	gt.Number(t, len(accounts.assumedARNs)).Equal(0)
}

func TestHandleStateChange_RegistersRunningInstance(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccountClient{account: enabledAccount(nil)}
	route53 := &mockRoute53Client{
		zones: []model.HostedZone{
			{ID: "ZPRIV", Name: "corp.example.com.", Private: true},
			{ID: "ZARPA", Name: "2.1.10.in-addr.arpa.", Private: true},
			{ID: "ZPUB", Name: "corp.example.com.", Private: false},
		},
		zoneVPCs: map[string][]string{
			"ZPRIV": {"vpc-1"},
			"ZARPA": {"vpc-1"},
		},
	}
	store := newMockRecordStore()
	ec2 := &mockEC2Client{
		instance: &model.Instance{
			ID:        "i-0123",
			PrivateIP: "10.1.2.3",
			VPCID:     "vpc-1",
			Tags: map[string]string{
				testTagPrefix + "/hostname":   "web01",
				testTagPrefix + "/dns_domain": "corp.example.com",
			},
		},
	}
	var factoryRegions []string

	uc := usecase.NewRecords(model.LoadSettings(), accounts, route53, store, ec2Factory(ec2, &factoryRegions))

	err := uc.HandleStateChange(ctx, &model.StateChangeEvent{
		Account:    "123456789012",
		Region:     "ap-northeast-1",
		InstanceID: "i-0123",
		State:      model.StateRunning,
	})
	gt.NoError(t, err)

	// Default role is assumed in the member account
	gt.Array(t, accounts.assumedARNs).Equal([]string{
		"arn:aws:iam::123456789012:role/STS-UpdateRoute53HostRecords",
	})
	gt.Array(t, factoryRegions).Equal([]string{"ap-northeast-1"})

	gt.Array(t, route53.changes).Equal([]recordChange{
		{Action: model.ChangeUpsert, Record: model.Record{
			ZoneID: "ZPRIV", Type: "A", Name: "web01.corp.example.com", Data: "10.1.2.3",
		}},
		{Action: model.ChangeUpsert, Record: model.Record{
			ZoneID: "ZARPA", Type: "PTR", Name: "3.2.1.10.in-addr.arpa", Data: "web01.corp.example.com.",
		}},
	})

	// Applied records are tracked for later removal
	gt.Number(t, len(store.saved["i-0123"])).Equal(2)
}

func TestHandleStateChange_RoleFromAccountTag(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccountClient{account: enabledAccount(map[string]string{
		testTagPrefix + "/iam/role": "CustomRecordUpdater",
	})}
	store := newMockRecordStore()
	ec2 := &mockEC2Client{
		instance: &model.Instance{
			ID:        "i-0123",
			PrivateIP: "10.1.2.3",
			VPCID:     "vpc-1",
			Tags:      map[string]string{"Name": "web01"},
		},
		vpcDomain: "internal.example.com",
	}
	var factoryRegions []string

	uc := usecase.NewRecords(model.LoadSettings(), accounts, &mockRoute53Client{}, store, ec2Factory(ec2, &factoryRegions))

	err := uc.HandleStateChange(ctx, &model.StateChangeEvent{
		Account:    "123456789012",
		Region:     "us-east-1",
		InstanceID: "i-0123",
		State:      model.StateRunning,
	})
	gt.NoError(t, err)
	gt.Array(t, accounts.assumedARNs).Equal([]string{
		"arn:aws:iam::123456789012:role/CustomRecordUpdater",
	})
}

func TestHandleStateChange_RegistersAliases(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccountClient{account: enabledAccount(nil)}
	route53 := &mockRoute53Client{
		zones: []model.HostedZone{
			{ID: "ZPRIV", Name: "corp.example.com.", Private: true},
			{ID: "ZPUB", Name: "example.com.", Private: false},
		},
		zoneVPCs: map[string][]string{"ZPRIV": {"vpc-1"}},
	}
	store := newMockRecordStore()
	ec2 := &mockEC2Client{
		instance: &model.Instance{
			ID:        "i-0123",
			PrivateIP: "10.1.2.3",
			PublicIP:  "203.0.113.10",
			VPCID:     "vpc-1",
			Tags: map[string]string{
				testTagPrefix + "/hostname":                         "web01",
				testTagPrefix + "/dns_domain":                       "corp.example.com",
				testTagPrefix + "/aliases/private":                  "db",
				testTagPrefix + "/aliases/private/db/hostname":      "db.corp.example.com",
				testTagPrefix + "/aliases/public":                   "www",
				testTagPrefix + "/aliases/public/www/hostname":      "www.example.com",
			},
		},
	}
	var factoryRegions []string

	uc := usecase.NewRecords(model.LoadSettings(), accounts, route53, store, ec2Factory(ec2, &factoryRegions))

	err := uc.HandleStateChange(ctx, &model.StateChangeEvent{
		Account:    "123456789012",
		Region:     "us-east-1",
		InstanceID: "i-0123",
		State:      model.StateRunning,
	})
	gt.NoError(t, err)

	gt.Array(t, route53.changes).Equal([]recordChange{
		{Action: model.ChangeUpsert, Record: model.Record{
			ZoneID: "ZPRIV", Type: "A", Name: "web01.corp.example.com", Data: "10.1.2.3",
		}},
		{Action: model.ChangeUpsert, Record: model.Record{
			ZoneID: "ZPRIV", Type: "A", Name: "db.corp.example.com", Data: "10.1.2.3",
		}},
		{Action: model.ChangeUpsert, Record: model.Record{
			ZoneID: "ZPUB", Type: "A", Name: "www.example.com", Data: "203.0.113.10",
		}},
	})
}

func TestHandleStateChange_SkipsInstanceWithoutHostname(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccountClient{account: enabledAccount(nil)}
	route53 := &mockRoute53Client{}
	store := newMockRecordStore()
	ec2 := &mockEC2Client{
		instance: &model.Instance{
			ID:        "i-0123",
			PrivateIP: "10.1.2.3",
			VPCID:     "vpc-1",
			Tags:      map[string]string{},
		},
	}
	var factoryRegions []string

	uc := usecase.NewRecords(model.LoadSettings(), accounts, route53, store, ec2Factory(ec2, &factoryRegions))

	err := uc.HandleStateChange(ctx, &model.StateChangeEvent{
		Account:    "123456789012",
		Region:     "us-east-1",
		InstanceID: "i-0123",
		State:      model.StateRunning,
	})
	gt.NoError(t, err)
	gt.Number(t, len(route53.changes)).Equal(0)
	gt.Number(t, len(store.saved)).Equal(0)
}

func TestHandleStateChange_UnregistersStoppingInstance(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccountClient{account: enabledAccount(nil)}
	route53 := &mockRoute53Client{}
	store := newMockRecordStore()
	store.saved["i-0123"] = []model.Record{
		{ZoneID: "ZPRIV", Type: "A", Name: "web01.corp.example.com", Data: "10.1.2.3"},
		{ZoneID: "ZARPA", Type: "PTR", Name: "3.2.1.10.in-addr.arpa", Data: "web01.corp.example.com."},
	}

	uc := usecase.NewRecords(model.LoadSettings(), accounts, route53, store, nil)

	err := uc.HandleStateChange(ctx, &model.StateChangeEvent{
		Account:    "123456789012",
		Region:     "us-east-1",
		InstanceID: "i-0123",
		State:      model.StateStopping,
	})
	gt.NoError(t, err)

	// No role assumption is needed for removal
	gt.Number(t, len(accounts.assumedARNs)).Equal(0)

	gt.Array(t, route53.changes).Equal([]recordChange{
		{Action: model.ChangeDelete, Record: model.Record{
			ZoneID: "ZPRIV", Type: "A", Name: "web01.corp.example.com", Data: "10.1.2.3",
		}},
		{Action: model.ChangeDelete, Record: model.Record{
			ZoneID: "ZARPA", Type: "PTR", Name: "3.2.1.10.in-addr.arpa", Data: "web01.corp.example.com.",
		}},
	})
	gt.Array(t, store.deleted).Equal([]string{"i-0123"})
}

func TestHandleStateChange_UnregisterWithoutTrackedRecords(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccountClient{account: enabledAccount(nil)}
	route53 := &mockRoute53Client{}
	store := newMockRecordStore()

	uc := usecase.NewRecords(model.LoadSettings(), accounts, route53, store, nil)

	err := uc.HandleStateChange(ctx, &model.StateChangeEvent{
		Account:    "123456789012",
		Region:     "us-east-1",
		InstanceID: "i-unknown",
		State:      model.StateShuttingDown,
	})
	gt.NoError(t, err)
	gt.Number(t, len(route53.changes)).Equal(0)
	gt.Number(t, len(store.deleted)).Equal(0)
}

func TestHandleStateChange_DefaultDomainSkipsZoneLookup(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccountClient{account: enabledAccount(nil)}
	route53 := &mockRoute53Client{}
	store := newMockRecordStore()
	ec2 := &mockEC2Client{
		instance: &model.Instance{
			ID:        "i-0123",
			PrivateIP: "10.1.2.3",
			VPCID:     "vpc-1",
			Tags:      map[string]string{"Name": "web01"},
		},
		// No DHCP domain configured, the regional default applies
	}
	var factoryRegions []string

	uc := usecase.NewRecords(model.LoadSettings(), accounts, route53, store, ec2Factory(ec2, &factoryRegions))

	err := uc.HandleStateChange(ctx, &model.StateChangeEvent{
		Account:    "123456789012",
		Region:     "us-east-1",
		InstanceID: "i-0123",
		State:      model.StateRunning,
	})
	gt.NoError(t, err)

	// us-east-1.compute.internal has no hosted zone so no A record, and the
	// ARPA zone does not exist either
	gt.Number(t, len(route53.changes)).Equal(0)
}
