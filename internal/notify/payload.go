package notify

import (
	"fmt"
	"time"
)

const (
	slackColorFailover = "#ff0000"
	slackColorRecovery = "#00ff00"

	discordColorFailover = 16711680
	discordColorRecovery = 65280
)

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	TS     int64        `json:"ts"`
}

type slackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Footer    discordFooter  `json:"footer"`
	Timestamp string         `json:"timestamp"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func eventDecoration(event Event) (emoji string, slackColor string, discordColor int) {
	if event == EventFailover {
		return "🚨", slackColorFailover, discordColorFailover
	}
	return "✅", slackColorRecovery, discordColorRecovery
}

func slackMessage(report Report) slackPayload {
	emoji, color, _ := eventDecoration(report.Event)

	return slackPayload{
		Attachments: []slackAttachment{{
			Color: color,
			Title: fmt.Sprintf("%s Failover Incident Report", emoji),
			Fields: []slackField{
				{Title: "Event", Value: upper(report.Event), Short: true},
				{Title: "Timestamp", Value: report.Timestamp.Format(time.RFC3339), Short: true},
				{Title: "Primary", Value: report.PrimaryURL, Short: true},
				{Title: "Backup", Value: report.BackupURL, Short: true},
				{Title: "Details", Value: report.Message, Short: false},
			},
			Footer: "Failover Proxy",
			TS:     report.Timestamp.Unix(),
		}},
	}
}

func discordMessage(report Report) discordPayload {
	emoji, _, color := eventDecoration(report.Event)

	return discordPayload{
		Embeds: []discordEmbed{{
			Title: fmt.Sprintf("%s Failover Incident Report", emoji),
			Color: color,
			Fields: []discordField{
				{Name: "Event", Value: upper(report.Event), Inline: true},
				{Name: "Timestamp", Value: report.Timestamp.Format(time.RFC3339), Inline: true},
				{Name: "Primary", Value: report.PrimaryURL, Inline: false},
				{Name: "Backup", Value: report.BackupURL, Inline: false},
				{Name: "Details", Value: report.Message, Inline: false},
			},
			Footer:    discordFooter{Text: "Failover Proxy"},
			Timestamp: report.Timestamp.Format(time.RFC3339),
		}},
	}
}

func upper(event Event) string {
	switch event {
	case EventFailover:
		return "FAILOVER"
	case EventRecovery:
		return "RECOVERY"
	default:
		return string(event)
	}
}
