package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type recordsUseCase struct {
	settings *model.Settings
	accounts interfaces.AccountClient
	route53  interfaces.Route53Client
	store    interfaces.RecordStore
	newEC2   interfaces.EC2ClientFactory
}

// NewRecords creates a new instance of RecordsUseCase
func NewRecords(
	settings *model.Settings,
	accounts interfaces.AccountClient,
	route53 interfaces.Route53Client,
	store interfaces.RecordStore,
	newEC2 interfaces.EC2ClientFactory,
) interfaces.RecordsUseCase {
	return &recordsUseCase{
		settings: settings,
		accounts: accounts,
		route53:  route53,
		store:    store,
		newEC2:   newEC2,
	}
}

// HandleStateChange registers or unregisters DNS records for the instance
// named by an EC2 state-change event
func (uc *recordsUseCase) HandleStateChange(ctx context.Context, event *model.StateChangeEvent) error {
	logger := ctxlog.From(ctx)

	if !event.Actionable() {
		logger.Info("Nothing to do for instance state",
			"instance_id", event.InstanceID,
			"state", event.State,
		)
		return nil
	}

	account, err := uc.accounts.DescribeAccount(ctx, event.Account)
	if err != nil {
		return goerr.Wrap(err, "failed to describe account", goerr.V("account", event.Account))
	}

	if !uc.settings.AccountEnabled(account.Tags) {
		logger.Info("Skipping disabled account",
			"account_id", account.ID,
			"account_name", account.Name,
		)
		return nil
	}

	logger.Info("Updating records for account",
		"account_id", account.ID,
		"account_name", account.Name,
		"instance_id", event.InstanceID,
		"state", event.State,
	)

	if event.Deregistering() {
		return uc.unregister(ctx, event.InstanceID)
	}

	roleName := account.Tags[uc.settings.IAMRoleTag]
	if roleName == "" {
		roleName = uc.settings.DefaultIAMRole
	}
	roleARN := fmt.Sprintf("arn:aws:iam::%s:role/%s", event.Account, roleName)

	creds, err := uc.accounts.AssumeRole(ctx, roleARN, "drover-"+uuid.NewString())
	if err != nil {
		return goerr.Wrap(err, "failed to assume role", goerr.V("role_arn", roleARN))
	}
	logger.Info("Assumed role", "role_arn", roleARN)

	ec2Client, err := uc.newEC2(ctx, event.Region, creds)
	if err != nil {
		return goerr.Wrap(err, "failed to create EC2 client", goerr.V("region", event.Region))
	}

	records, err := uc.register(ctx, ec2Client, event)
	if err != nil {
		return err
	}
	if records == nil {
		return nil
	}

	if err := uc.store.Save(ctx, event.InstanceID, records); err != nil {
		return goerr.Wrap(err, "failed to save registered records",
			goerr.V("instance_id", event.InstanceID))
	}

	return nil
}

// register creates the DNS records for a running instance and returns the
// set of attempted records. A nil slice means registration was skipped.
func (uc *recordsUseCase) register(ctx context.Context, ec2Client interfaces.EC2Client, event *model.StateChangeEvent) ([]model.Record, error) {
	logger := ctxlog.From(ctx)

	instance, err := ec2Client.DescribeInstance(ctx, event.InstanceID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to describe instance",
			goerr.V("instance_id", event.InstanceID))
	}
	if instance.PrivateIP == "" {
		return nil, goerr.New("instance is missing private IP",
			goerr.V("instance_id", instance.ID))
	}
	if instance.VPCID == "" {
		return nil, goerr.New("instance is missing VPC ID",
			goerr.V("instance_id", instance.ID))
	}

	hostname := uc.instanceHostname(instance.Tags)
	if hostname == "" {
		logger.Warn("No hostname is defined for the instance, skipping registration",
			"instance_id", instance.ID,
		)
		return nil, nil
	}

	dnsDomain, fqdn := uc.splitHostname(ctx, ec2Client, instance, event.Region, hostname)
	logger.Info("Resolved instance names",
		"hostname", hostname,
		"dns_domain", dnsDomain,
		"fqdn", fqdn,
		"private_ip", instance.PrivateIP,
		"public_ip", instance.PublicIP,
	)

	octets := strings.Split(instance.PrivateIP, ".")
	if len(octets) != 4 {
		return nil, goerr.New("instance private IP is not IPv4",
			goerr.V("instance_id", instance.ID),
			goerr.V("private_ip", instance.PrivateIP))
	}
	ptrName := fmt.Sprintf("%s.%s.%s.%s.in-addr.arpa", octets[3], octets[2], octets[1], octets[0])
	arpaZone := fmt.Sprintf("%s.%s.%s.in-addr.arpa", octets[2], octets[1], octets[0])

	records := []model.Record{}

	// A record in the private zone attached to the VPC
	privateZoneID, err := uc.findPrivateZone(ctx, instance.VPCID, dnsDomain)
	if err != nil {
		return nil, err
	}
	if privateZoneID == "" {
		logger.Info("No matching private zone for DNS domain attached to VPC, skipping A record")
	} else {
		rec := model.Record{ZoneID: privateZoneID, Type: "A", Name: fqdn, Data: instance.PrivateIP}
		records = append(records, rec)
		uc.changeRecord(ctx, model.ChangeUpsert, rec)
	}

	aliasesTag := instance.Tags[uc.settings.AliasesTagNameAccountTag]
	if aliasesTag == "" {
		aliasesTag = uc.settings.DefaultAliasesTagName
	}

	// A records for private aliases
	privateAliases, err := uc.aliases(ctx, instance.VPCID, instance.Tags, aliasesTag, "private", dnsDomain)
	if err != nil {
		return nil, err
	}
	for _, target := range privateAliases {
		if target.ZoneID == "" {
			logger.Info("No matching zone for private alias, skipping", "alias", target.Alias)
			continue
		}
		rec := model.Record{ZoneID: target.ZoneID, Type: "A", Name: target.FQDN, Data: instance.PrivateIP}
		records = append(records, rec)
		uc.changeRecord(ctx, model.ChangeUpsert, rec)
	}

	// PTR record in the reverse zone
	arpaZoneID, err := uc.findPrivateZone(ctx, instance.VPCID, arpaZone)
	if err != nil {
		return nil, err
	}
	if arpaZoneID == "" {
		logger.Info("No matching private ARPA zone attached to VPC, skipping PTR record")
	} else {
		rec := model.Record{ZoneID: arpaZoneID, Type: "PTR", Name: ptrName, Data: fqdn + "."}
		records = append(records, rec)
		uc.changeRecord(ctx, model.ChangeUpsert, rec)
	}

	// Public aliases only apply when the instance has a public address
	if instance.PublicIP == "" {
		logger.Info("Instance has no public IP, skipping public aliases")
		return records, nil
	}

	publicAliases, err := uc.aliases(ctx, instance.VPCID, instance.Tags, aliasesTag, "public", dnsDomain)
	if err != nil {
		return nil, err
	}
	for _, target := range publicAliases {
		if target.ZoneID == "" {
			logger.Info("No matching zone for public alias, skipping", "alias", target.Alias)
			continue
		}
		rec := model.Record{ZoneID: target.ZoneID, Type: "A", Name: target.FQDN, Data: instance.PublicIP}
		records = append(records, rec)
		uc.changeRecord(ctx, model.ChangeUpsert, rec)
	}

	return records, nil
}

// unregister removes the records that were registered for the instance and
// deletes the tracking entry
func (uc *recordsUseCase) unregister(ctx context.Context, instanceID string) error {
	logger := ctxlog.From(ctx)

	records, err := uc.store.Load(ctx, instanceID)
	if err != nil {
		if goerr.HasTag(err, types.ErrTagNotFound) {
			logger.Info("No registered records for instance", "instance_id", instanceID)
			return nil
		}
		return goerr.Wrap(err, "failed to load registered records",
			goerr.V("instance_id", instanceID))
	}

	for _, rec := range records {
		uc.changeRecord(ctx, model.ChangeDelete, rec)
	}

	if err := uc.store.Delete(ctx, instanceID); err != nil {
		return goerr.Wrap(err, "failed to delete record entry",
			goerr.V("instance_id", instanceID))
	}

	logger.Info("Unregistered instance records",
		"instance_id", instanceID,
		"record_count", len(records),
	)
	return nil
}

// instanceHostname resolves the hostname from the instance's tags: the
// configured hostname tag first, the Name tag as fallback
func (uc *recordsUseCase) instanceHostname(tags map[string]string) string {
	hostnameTag := tags[uc.settings.HostnameTagNameAccountTag]
	if hostnameTag == "" {
		hostnameTag = uc.settings.DefaultHostnameTagName
	}
	if hostname := tags[hostnameTag]; hostname != "" {
		return hostname
	}
	return tags["Name"]
}

// splitHostname derives the DNS domain and FQDN for a hostname. A bare
// label gets the instance's DNS domain appended; a dotted name is treated
// as already fully qualified.
func (uc *recordsUseCase) splitHostname(ctx context.Context, ec2Client interfaces.EC2Client, instance *model.Instance, region, hostname string) (dnsDomain, fqdn string) {
	parts := strings.Split(hostname, ".")
	if len(parts) == 1 {
		dnsDomain = uc.dnsDomain(ctx, ec2Client, instance, region)
		return dnsDomain, hostname + "." + dnsDomain
	}
	return strings.Join(parts[1:], "."), hostname
}

// dnsDomain resolves the DNS domain for an instance: the configured
// dns-domain tag first, then the VPC's DHCP options domain-name, then the
// regional default
func (uc *recordsUseCase) dnsDomain(ctx context.Context, ec2Client interfaces.EC2Client, instance *model.Instance, region string) string {
	logger := ctxlog.From(ctx)

	domainTag := instance.Tags[uc.settings.DNSDomainTagNameAccountTag]
	if domainTag == "" {
		domainTag = uc.settings.DefaultDNSDomainTagName
	}
	if domain := instance.Tags[domainTag]; domain != "" {
		return domain
	}

	domain, err := ec2Client.VPCDomainName(ctx, instance.VPCID)
	if err != nil {
		logger.Warn("Failed to resolve VPC DHCP options domain", "vpc_id", instance.VPCID, "error", err)
	}
	if domain != "" {
		return domain
	}
	return region + ".compute.internal"
}

// aliases resolves the alias record targets of the given type from the
// instance's alias tag tree
func (uc *recordsUseCase) aliases(ctx context.Context, vpcID string, tags map[string]string, aliasesTag, aliasType, defaultDomain string) ([]model.AliasTarget, error) {
	logger := ctxlog.From(ctx)

	raw := tags[aliasesTag+"/"+aliasType]
	if raw == "" {
		return nil, nil
	}

	var targets []model.AliasTarget
	for _, alias := range strings.Split(raw, ",") {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}

		tagBase := fmt.Sprintf("%s/%s/%s", aliasesTag, aliasType, alias)

		hostname := tags[tagBase+"/hostname"]
		if hostname == "" {
			logger.Warn("No hostname found for alias, using alias as hostname",
				"alias", alias,
				"alias_type", aliasType,
			)
			hostname = alias
		}

		var dnsDomain, fqdn string
		parts := strings.Split(hostname, ".")
		if len(parts) == 1 {
			dnsDomain = defaultDomain
			fqdn = hostname + "." + dnsDomain
		} else {
			fqdn = hostname
			hostname = parts[0]
			dnsDomain = strings.Join(parts[1:], ".")
		}

		zoneID := tags[tagBase+"/zone_id"]
		if zoneID == "" {
			var err error
			switch aliasType {
			case "private":
				zoneID, err = uc.findPrivateZone(ctx, vpcID, dnsDomain)
			case "public":
				zoneID, err = uc.findPublicZone(ctx, dnsDomain)
			}
			if err != nil {
				return nil, err
			}
		}

		targets = append(targets, model.AliasTarget{
			Alias:     alias,
			Hostname:  hostname,
			DNSDomain: dnsDomain,
			FQDN:      fqdn,
			ZoneID:    zoneID,
		})
	}

	return targets, nil
}

// findPublicZone looks up the public hosted zone matching the zone name,
// checking parent domains up to the registrable root when no exact match
// exists
func (uc *recordsUseCase) findPublicZone(ctx context.Context, zoneName string) (string, error) {
	if zoneName == "" {
		return "", nil
	}

	zones, err := uc.route53.ListZones(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to list hosted zones")
	}

	parts := strings.Split(zoneName, ".")
	for len(parts) >= 2 {
		check := strings.Join(parts, ".") + "."
		for _, zone := range zones {
			if !zone.Private && zone.Name == check {
				return zone.ID, nil
			}
		}
		parts = parts[1:]
	}
	return "", nil
}

// findPrivateZone looks up the private hosted zone matching the zone name
// that is attached to the given VPC, walking parent domains like
// findPublicZone
func (uc *recordsUseCase) findPrivateZone(ctx context.Context, vpcID, zoneName string) (string, error) {
	logger := ctxlog.From(ctx)

	if zoneName == "" {
		return "", nil
	}
	// The default VPC domain has no hosted zone to find
	if strings.HasSuffix(zoneName, ".compute.internal") {
		logger.Info("Default private zone in use, skipping zone lookup", "zone", zoneName)
		return "", nil
	}

	zones, err := uc.route53.ListZones(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to list hosted zones")
	}

	parts := strings.Split(zoneName, ".")
	for len(parts) >= 2 {
		check := strings.Join(parts, ".") + "."
		for _, zone := range zones {
			if !zone.Private || zone.Name != check {
				continue
			}
			vpcs, err := uc.route53.ZoneVPCs(ctx, zone.ID)
			if err != nil {
				return "", goerr.Wrap(err, "failed to get zone VPC attachments",
					goerr.V("zone_id", zone.ID))
			}
			for _, attached := range vpcs {
				if attached == vpcID {
					return zone.ID, nil
				}
			}
			logger.Info("Zone is not attached to VPC", "zone_id", zone.ID, "vpc_id", vpcID)
		}
		parts = parts[1:]
	}
	return "", nil
}

// changeRecord applies a single record change. Failures are logged and do
// not abort the remaining changes, matching the at-least-partial behavior
// expected for bulk registration.
func (uc *recordsUseCase) changeRecord(ctx context.Context, action model.ChangeAction, rec model.Record) {
	logger := ctxlog.From(ctx)

	if err := uc.route53.ChangeRecord(ctx, action, rec); err != nil {
		logger.Error("Record change failed",
			"action", action,
			"type", rec.Type,
			"name", rec.Name,
			"data", rec.Data,
			"zone_id", rec.ZoneID,
			"error", err,
		)
		return
	}

	logger.Info("Record change applied",
		"action", action,
		"type", rec.Type,
		"name", rec.Name,
		"data", rec.Data,
		"zone_id", rec.ZoneID,
	)
}
