package model

import (
	"os"
	"strings"
)

const tagPrefix = "fn.drover.dev/update-route53-host-records"

// Settings holds the environment-driven configuration of the
// update-route53-host-records function
type Settings struct {
	// TableName is the DynamoDB table tracking registered records per
	// instance
	TableName string

	// AccountStateTag is the Organizations account tag that enables the
	// function for an account; AccountEnabledValues lists tag values
	// treated as enabled
	AccountStateTag      string
	AccountEnabledValues []string

	// IAMRoleTag names the account tag carrying the role to assume in the
	// member account; DefaultIAMRole is used when the tag is absent
	IAMRoleTag     string
	DefaultIAMRole string

	// Instance tag indirection: the account may override which instance
	// tags carry the hostname, DNS domain, and alias tree
	HostnameTagNameAccountTag  string
	DefaultHostnameTagName     string
	DNSDomainTagNameAccountTag string
	DefaultDNSDomainTagName    string
	AliasesTagNameAccountTag   string
	DefaultAliasesTagName      string
}

type settingDefault struct {
	envVar       string
	defaultValue string
}

var settingDefaults = map[string]settingDefault{
	"dynamo_table_name": {
		envVar:       "DYNAMO_TABLE_NAME",
		defaultValue: "update-route53-host-records",
	},
	"account_state_tag": {
		envVar:       "ACCOUNT_STATE_TAG",
		defaultValue: tagPrefix + "/account/state",
	},
	"account_enabled_values": {
		envVar:       "ACCOUNT_ENABLED_VALUES",
		defaultValue: "enabled",
	},
	"iam_role_tag": {
		envVar:       "IAM_ROLE_TAG",
		defaultValue: tagPrefix + "/iam/role",
	},
	"default_iam_role": {
		envVar:       "DEFAULT_IAM_ROLE",
		defaultValue: "STS-UpdateRoute53HostRecords",
	},
	"hostname_tag_name_account_tag": {
		envVar:       "HOSTNAME_TAG_NAME_ACCOUNT_TAG",
		defaultValue: tagPrefix + "/tags/hostname",
	},
	"default_hostname_tag_name": {
		envVar:       "DEFAULT_HOSTNAME_TAG_NAME",
		defaultValue: tagPrefix + "/hostname",
	},
	"dns_domain_tag_name_account_tag": {
		envVar:       "DNS_DOMAIN_TAG_NAME_ACCOUNT_TAG",
		defaultValue: tagPrefix + "/tags/dns_domain",
	},
	"default_dns_domain_tag_name": {
		envVar:       "DEFAULT_DNS_DOMAIN_TAG_NAME",
		defaultValue: tagPrefix + "/dns_domain",
	},
	"aliases_tag_name_account_tag": {
		envVar:       "ALIASES_TAG_NAME_ACCOUNT_TAG",
		defaultValue: tagPrefix + "/tags/aliases",
	},
	"default_aliases_tag_name": {
		envVar:       "DEFAULT_ALIASES_TAG_NAME",
		defaultValue: tagPrefix + "/aliases",
	},
}

func getSetting(name string) string {
	def := settingDefaults[name]
	if v := os.Getenv(def.envVar); v != "" {
		return v
	}
	return def.defaultValue
}

// LoadSettings reads the function configuration from the environment,
// falling back to built-in defaults for unset variables
func LoadSettings() *Settings {
	enabledValues := []string{}
	for _, v := range strings.Split(getSetting("account_enabled_values"), ":") {
		if v = strings.TrimSpace(v); v != "" {
			enabledValues = append(enabledValues, v)
		}
	}

	return &Settings{
		TableName:                  getSetting("dynamo_table_name"),
		AccountStateTag:            getSetting("account_state_tag"),
		AccountEnabledValues:       enabledValues,
		IAMRoleTag:                 getSetting("iam_role_tag"),
		DefaultIAMRole:             getSetting("default_iam_role"),
		HostnameTagNameAccountTag:  getSetting("hostname_tag_name_account_tag"),
		DefaultHostnameTagName:     getSetting("default_hostname_tag_name"),
		DNSDomainTagNameAccountTag: getSetting("dns_domain_tag_name_account_tag"),
		DefaultDNSDomainTagName:    getSetting("default_dns_domain_tag_name"),
		AliasesTagNameAccountTag:   getSetting("aliases_tag_name_account_tag"),
		DefaultAliasesTagName:      getSetting("default_aliases_tag_name"),
	}
}

// AccountEnabled reports whether the function is enabled for an account
// based on its Organizations tags
func (s *Settings) AccountEnabled(tags map[string]string) bool {
	state, ok := tags[s.AccountStateTag]
	if !ok {
		return false
	}
	for _, v := range s.AccountEnabledValues {
		if state == v {
			return true
		}
	}
	return false
}
