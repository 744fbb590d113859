package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"cogbattery/internal/battery"
	"cogbattery/internal/export"
	"cogbattery/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
)

// ResultsHandler serves the researcher-facing views of stored results.
type ResultsHandler struct {
	log      *zap.Logger
	repo     *repository.Repository
	registry *battery.Registry
	results  export.Loader
	now      func() time.Time
}

func NewResultsHandler(log *zap.Logger, repo *repository.Repository, registry *battery.Registry, results export.Loader) *ResultsHandler {
	return &ResultsHandler{log: log, repo: repo, registry: registry, results: results, now: time.Now}
}

// ListParticipants returns every registered participant.
func (h *ResultsHandler) ListParticipants(c *gin.Context) {
	participants, err := h.repo.ListParticipants(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// ExportCSV streams the participant's results as a CSV attachment. The
// document is rendered in full first so a failure still yields a clean
// error status.
func (h *ResultsHandler) ExportCSV(c *gin.Context) {
	ctx := c.Request.Context()
	participant, err := h.repo.GetParticipant(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(ctx, &buf, *participant, h.registry.Battery(), h.results, h.now()); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("Exported participant results", zap.String("participant", participant.ID))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, participant.ID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Charts returns echarts option objects for one task: the highest
// difficulty reached per completed run, and the difficulty of each trial
// in the latest run.
func (h *ResultsHandler) Charts(c *gin.Context) {
	ctx := c.Request.Context()
	participantID, taskKey := c.Param("id"), c.Param("task")

	def, err := h.registry.Definition(taskKey)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if _, err := h.repo.GetParticipant(ctx, participantID); err != nil {
		respondError(c, h.log, err)
		return
	}

	timeline, err := h.repo.GetTimelineData(ctx, participantID, taskKey)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	progression, err := h.repo.GetDifficultyProgression(ctx, participantID, taskKey)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	label := def.Title
	if label == "" {
		label = def.Key
	}
	c.JSON(http.StatusOK, gin.H{
		"timeline":    generateTimelineChart(timeline, label).JSON(),
		"progression": generateProgressionChart(progression, label).JSON(),
	})
}

func generateTimelineChart(data []repository.TimelineDataPoint, label string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Max Difficulty Over Time",
			Subtitle: label,
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	items := make([]opts.LineData, 0, len(data))
	for _, point := range data {
		items = append(items, opts.LineData{Value: []interface{}{point.Date, point.Value}})
	}

	line.AddSeries(label, items).SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}

func generateProgressionChart(data []repository.TrialDataPoint, label string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Difficulty Per Trial",
			Subtitle: label,
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "trial"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "difficulty", Scale: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	trials := make([]int, 0, len(data))
	items := make([]opts.LineData, 0, len(data))
	for _, point := range data {
		trials = append(trials, point.Trial)
		// Incorrect trials are drawn as hollow points.
		symbol := "circle"
		if !point.IsCorrect {
			symbol = "emptyCircle"
		}
		items = append(items, opts.LineData{Value: point.Difficulty, Symbol: symbol})
	}

	line.SetXAxis(trials).
		AddSeries(label, items).
		SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}
