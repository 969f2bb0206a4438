package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"flux/internal/modules/insight/domain"
	"flux/internal/modules/insight/dto"
	insightin "flux/internal/modules/insight/port/in"
	insightout "flux/internal/modules/insight/port/out"
	"flux/internal/modules/insight/service"
)

type Interactor struct {
	engine  *service.Engine
	reports insightout.ReportStore
}

func NewInteractor(engine *service.Engine, reports insightout.ReportStore) insightin.Usecase {
	return &Interactor{engine: engine, reports: reports}
}

func (i *Interactor) Forecast(ctx context.Context) (*dto.ForecastOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return forecastOutput(i.engine.ForecastToday()), nil
}

func (i *Interactor) WeeklyReport(ctx context.Context) (dto.ReportOutput, error) {
	if err := ctx.Err(); err != nil {
		return dto.ReportOutput{}, err
	}
	return reportOutput(i.engine.WeeklyReport()), nil
}

// Overview computes today's forecast and the weekly report concurrently.
func (i *Interactor) Overview(ctx context.Context) (dto.OverviewOutput, error) {
	var out dto.OverviewOutput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		forecast, err := i.Forecast(gctx)
		out.Forecast = forecast
		return err
	})
	g.Go(func() error {
		report, err := i.WeeklyReport(gctx)
		out.Weekly = report
		return err
	})
	if err := g.Wait(); err != nil {
		return dto.OverviewOutput{}, fmt.Errorf("build overview: %w", err)
	}
	return out, nil
}

func (i *Interactor) ExportWeekly(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	if i.reports == nil {
		return dto.ExportOutput{}, fmt.Errorf("report store is not configured")
	}
	report := i.engine.WeeklyReport()
	path, err := i.reports.SaveWeekly(ctx, report, input.Path)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	return dto.ExportOutput{Path: path, Report: reportOutput(report)}, nil
}

func forecastOutput(forecast *domain.Forecast) *dto.ForecastOutput {
	if forecast == nil {
		return nil
	}
	return &dto.ForecastOutput{
		Type:       string(forecast.Type),
		AvgEnergy:  forecast.AvgEnergy,
		Confidence: forecast.Confidence,
		Samples:    forecast.Samples,
		Weekday:    forecast.Weekday.String(),
		Message:    forecast.Message,
	}
}

func reportOutput(report domain.Report) dto.ReportOutput {
	return dto.ReportOutput{
		Period:      report.Period,
		From:        report.From,
		To:          report.To,
		AvgEnergy:   report.AvgEnergy,
		CheckIns:    report.CheckIns,
		Completions: report.Completions,
		TopTags:     append([]string{}, report.TopTags...),
		Insight:     report.Insight,
		LogCount:    report.LogCount,
		Markdown:    report.Markdown(),
	}
}
