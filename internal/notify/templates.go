package notify

import (
	"fmt"
	"strings"
	"text/template"
)

type mailTemplate struct {
	subject string
	body    *template.Template
}

var mailTemplates = map[string]mailTemplate{
	KindImportCompleted: {
		subject: "Employee Import Completed",
		body: template.Must(template.New(KindImportCompleted).Parse(
			`Your employee import has been completed.
Total records: {{.total_records}}
Processed: {{.processed_records}}
Failed: {{.failed_records}}
`)),
	},
	KindImportFailed: {
		subject: "Employee Import Failed",
		body: template.Must(template.New(KindImportFailed).Parse(
			`Your employee import has failed.
Error: {{.error_message}}
Processed before failure: {{.processed_records}} of {{.total_records}}
`)),
	},
	KindAdminSummary: {
		subject: "Employee Import Summary Report",
		body: template.Must(template.New(KindAdminSummary).Parse(
			`Import #{{.import_job_id}} summary
Total records: {{.total_records}}
Processed: {{.processed_records}}
Failed: {{.failed_records}}
Success rate: {{.success_rate}}%
Duration: {{.duration}}s
Records per second: {{.records_per_second}}
`)),
	},
}

func render(kind, to string, data map[string]any) (Mail, error) {
	tmpl, ok := mailTemplates[kind]
	if !ok {
		return Mail{}, fmt.Errorf("no mail template for %s", kind)
	}
	var body strings.Builder
	if err := tmpl.body.Execute(&body, data); err != nil {
		return Mail{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Mail{To: to, Subject: tmpl.subject, Body: body.String()}, nil
}
