package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"meal-waste-workers/internal/common/config"
	"meal-waste-workers/internal/common/database"
	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/internal/forecast"
	"meal-waste-workers/internal/forecast/dataset"
	"meal-waste-workers/pkg/registry"
)

// Globals are the flags shared by every subcommand.
type Globals struct {
	Dataset  string `help:"CSV file with historical meal records." type:"path" default:"data/meal_waste.csv"`
	SQLite   string `name:"sqlite" help:"Read records from this SQLite database instead of the CSV file." type:"path"`
	Table    string `help:"Table holding the records when --sqlite is set." default:"meal_waste"`
	Trees    int    `help:"Number of trees in the forest." default:"100"`
	Seed     int64  `help:"Seed for the train split and tree sampling." default:"42"`
	JSON     bool   `name:"json" help:"Print JSON instead of tables."`
	LogLevel string `help:"Log level." default:"warn" enum:"debug,info,warn,error"`
}

// Context carries what the subcommands share.
type Context struct {
	Globals

	ctx context.Context
	out io.Writer
	log logger.Logger
}

func newContext(ctx context.Context, g Globals, out io.Writer, log logger.Logger) *Context {
	return &Context{Globals: g, ctx: ctx, out: out, log: log}
}

func (c *Context) records() ([]dataset.Record, error) {
	if c.SQLite == "" {
		return dataset.NewCSVSource(c.Dataset).Load(c.ctx)
	}

	client, err := database.NewSQLite(config.SQLiteConfig{Path: c.SQLite})
	if err != nil {
		return nil, err
	}
	defer client.Close()

	src, err := dataset.NewSQLSource(client.DB, client.Driver, c.Table)
	if err != nil {
		return nil, err
	}
	return src.Load(c.ctx)
}

func (c *Context) artifact(testRatio float64) (*forecast.Artifact, error) {
	records, err := c.records()
	if err != nil {
		return nil, err
	}

	opts := forecast.DefaultTrainingOptions()
	opts.Forest.Trees = c.Trees
	opts.Forest.Seed = c.Seed
	if testRatio >= 0 {
		opts.TestRatio = testRatio
	}
	return forecast.BuildArtifact(c.ctx, records, opts, c.log)
}

func (c *Context) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *Context) printTable(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(c.out, t.Render())
}

func kg(v float64) string    { return strconv.FormatFloat(v, 'f', 3, 64) }
func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

type PredictCmd struct {
	Season   string `arg:"" help:"Season, e.g. Summer."`
	DayType  string `arg:"" name:"day-type" help:"Weekday or Holiday."`
	Day      string `arg:"" help:"Day of the week, e.g. Monday."`
	Meal     string `arg:"" help:"Meal category, e.g. Lunch."`
	Students string `arg:"" help:"Number of students expected."`
}

func (cmd *PredictCmd) Run(ctx *Context) error {
	art, err := ctx.artifact(-1)
	if err != nil {
		return err
	}
	svc, err := forecast.NewService(art, ctx.log)
	if err != nil {
		return err
	}

	res, err := svc.PredictWasteAndCost(ctx.ctx, forecast.Request{
		Season:       cmd.Season,
		DayType:      cmd.DayType,
		Day:          cmd.Day,
		MealCategory: cmd.Meal,
		Students:     cmd.Students,
	})
	if err != nil {
		return err
	}

	if ctx.JSON {
		return ctx.printJSON(res)
	}

	rows := make([][]string, 0, len(res.Dishes)+1)
	for _, d := range res.Dishes {
		rows = append(rows, []string{
			d.Dish, kg(d.PredictedWaste), kg(d.PreparedQty),
			money(d.MinCost), money(d.MaxCost), strconv.Itoa(d.Samples),
		})
	}
	rows = append(rows, []string{
		"TOTAL", kg(res.TotalWaste), kg(res.TotalPrepared),
		money(res.TotalMinCost), money(res.TotalMaxCost), "",
	})
	ctx.printTable([]string{"Dish", "Waste (kg)", "Prepared (kg)", "Min cost", "Max cost", "Samples"}, rows)
	return nil
}

// VocabCmd only fits the encoders; no model is trained.
type VocabCmd struct{}

func (cmd *VocabCmd) Run(ctx *Context) error {
	records, err := ctx.records()
	if err != nil {
		return err
	}
	bank, err := forecast.FitBank(records)
	if err != nil {
		return err
	}

	vocab := bank.Vocabulary()
	if ctx.JSON {
		return ctx.printJSON(vocab)
	}

	fields := make([]string, 0, len(vocab))
	for f := range vocab {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, []string{f, strings.Join(vocab[f], ", ")})
	}
	ctx.printTable([]string{"Field", "Labels"}, rows)
	return nil
}

type EvaluateCmd struct {
	TestRatio float64 `help:"Share of rows held out for scoring." default:"0.2"`
}

func (cmd *EvaluateCmd) Run(ctx *Context) error {
	if cmd.TestRatio < 0 || cmd.TestRatio >= 1 {
		return fmt.Errorf("--test-ratio must be in [0, 1)")
	}

	art, err := ctx.artifact(cmd.TestRatio)
	if err != nil {
		return err
	}

	info := art.Info()
	if ctx.JSON {
		return ctx.printJSON(info)
	}

	ctx.printTable([]string{"Metric", "Value"}, [][]string{
		{"Records", strconv.Itoa(info.Records)},
		{"Train rows", strconv.Itoa(info.TrainRows)},
		{"Test rows", strconv.Itoa(info.Evaluation.Samples)},
		{"Trees", strconv.Itoa(info.Trees)},
		{"R2", strconv.FormatFloat(info.Evaluation.R2, 'f', 4, 64)},
		{"MAE", kg(info.Evaluation.MAE)},
		{"RMSE", kg(info.Evaluation.RMSE)},
	})
	return nil
}

// ActivitiesCmd lists the job types in the activity registry. It does not
// touch the dataset.
type ActivitiesCmd struct {
	Registry string `help:"Activity registry file." type:"path" default:"${registry_path}"`
}

func (cmd *ActivitiesCmd) Run(ctx *Context) error {
	reg, err := registry.LoadRegistry(cmd.Registry)
	if err != nil {
		return err
	}

	if ctx.JSON {
		return ctx.printJSON(reg.Activities)
	}

	rows := make([][]string, 0, len(reg.Activities))
	for _, a := range reg.Activities {
		rows = append(rows, []string{
			a.TaskType, a.Category, a.Timeout, strconv.Itoa(a.Retries), strings.Join(a.ErrorCodes, ", "),
		})
	}
	ctx.printTable([]string{"Task type", "Category", "Timeout", "Retries", "Error codes"}, rows)
	return nil
}
