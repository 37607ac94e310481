package importer

import (
	"time"

	"github.com/hr-data-api/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	adminReportMinTotal  = 1000
	adminReportMinFailed = 10
)

var hundred = decimal.NewFromInt(100)

// Summarize считает сводку по итоговому снимку задачи
func Summarize(job domain.ImportJob) domain.ImportStatistic {
	duration := int64(job.UpdatedAt.Sub(job.CreatedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}

	successRate := decimal.Zero
	if job.TotalRecords > 0 {
		successRate = decimal.NewFromInt(job.SucceededRecords()).
			Mul(hundred).
			Div(decimal.NewFromInt(job.TotalRecords)).
			Round(2)
	}

	perSecond := decimal.Zero
	if duration > 0 {
		perSecond = decimal.NewFromInt(job.ProcessedRecords).
			Div(decimal.NewFromInt(duration)).
			Round(2)
	}

	return domain.ImportStatistic{
		ImportID:         job.ID,
		UserID:           job.UserID,
		TotalRecords:     job.TotalRecords,
		ProcessedRecords: job.ProcessedRecords,
		FailedRecords:    job.FailedRecords,
		SuccessRate:      successRate,
		Duration:         duration,
		RecordsPerSecond: perSecond,
		CompletedAt:      job.UpdatedAt,
	}
}

// NeedsAdminReport сообщает, достаточно ли импорт велик или проблемен для письма администратору
func NeedsAdminReport(job domain.ImportJob) bool {
	return job.TotalRecords > adminReportMinTotal || job.FailedRecords > adminReportMinFailed
}
