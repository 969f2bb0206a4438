package dto

import "time"

type ForecastOutput struct {
	Type       string
	AvgEnergy  int
	Confidence int
	Samples    int
	Weekday    string
	Message    string
}

type ReportOutput struct {
	Period      string
	From        time.Time
	To          time.Time
	AvgEnergy   int
	CheckIns    int
	Completions int
	TopTags     []string
	Insight     string
	LogCount    int
	Markdown    string
}

type OverviewOutput struct {
	// Forecast is nil when there is nothing actionable to say about today.
	Forecast *ForecastOutput
	Weekly   ReportOutput
}

type ExportInput struct {
	Path string
}

type ExportOutput struct {
	Path   string
	Report ReportOutput
}
