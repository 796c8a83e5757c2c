// Package route53 provides AWS::Route53::RecordSet.
package route53

// RecordSet is AWS::Route53::RecordSet.
type RecordSet struct {
	HostedZoneId    any                    `json:"HostedZoneId,omitempty"`
	Name            any                    `json:"Name,omitempty"`
	Type            string                 `json:"Type,omitempty"`
	TTL             string                 `json:"TTL,omitempty"`
	ResourceRecords []any                  `json:"ResourceRecords,omitempty"`
	AliasTarget     *RecordSet_AliasTarget `json:"AliasTarget,omitempty"`
	Comment         string                 `json:"Comment,omitempty"`
}

func (RecordSet) ResourceType() string { return "AWS::Route53::RecordSet" }

// RecordSet_AliasTarget aliases a record to another AWS endpoint.
type RecordSet_AliasTarget struct {
	DNSName              any  `json:"DNSName,omitempty"`
	HostedZoneId         any  `json:"HostedZoneId,omitempty"`
	EvaluateTargetHealth bool `json:"EvaluateTargetHealth,omitempty"`
}
