// Package logs provides AWS::Logs::LogGroup.
package logs

// LogGroup is AWS::Logs::LogGroup.
type LogGroup struct {
	LogGroupName    any `json:"LogGroupName,omitempty"`
	RetentionInDays int `json:"RetentionInDays,omitempty"`
}

func (LogGroup) ResourceType() string { return "AWS::Logs::LogGroup" }
