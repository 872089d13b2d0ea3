package forecast

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/internal/forecast/dataset"
	"meal-waste-workers/internal/forecast/encoding"
	"meal-waste-workers/internal/forecast/regression"
)

// Artifact bundles the encoder bank, the trained model and the encoded
// dataset. The three are built together and never change afterwards, so one
// Artifact can be shared by every request.
type Artifact struct {
	bank       *encoding.Bank
	model      Model
	records    []EncodedRecord
	evaluation regression.Evaluation
	trainRows  int
	builtAt    time.Time
}

// TrainingOptions control BuildArtifact.
type TrainingOptions struct {
	Forest    regression.Params
	TestRatio float64
}

// DefaultTrainingOptions holds out 20% of the rows for evaluation.
func DefaultTrainingOptions() TrainingOptions {
	return TrainingOptions{Forest: regression.DefaultParams(), TestRatio: 0.2}
}

// ModelInfo describes a built artifact.
type ModelInfo struct {
	Records      int                   `json:"records"`
	TrainRows    int                   `json:"train_rows"`
	Trees        int                   `json:"trees,omitempty"`
	FeatureOrder []string              `json:"feature_order"`
	Evaluation   regression.Evaluation `json:"evaluation"`
	BuiltAt      time.Time             `json:"built_at"`
}

// BuildArtifact fits the encoders on records, encodes the dataset, and trains
// a random forest on a seeded train split. The held-out split is only used to
// report accuracy.
func BuildArtifact(ctx context.Context, records []dataset.Record, opts TrainingOptions, log logger.Logger) (*Artifact, error) {
	if len(records) == 0 {
		return nil, errors.NewModelTrainingError("dataset is empty")
	}
	log = log.WithFields(map[string]interface{}{"component": "artifact"})

	bank, err := FitBank(records)
	if err != nil {
		return nil, errors.NewModelTrainingError(err.Error())
	}

	encoded, err := EncodeRecords(bank, records)
	if err != nil {
		return nil, errors.NewModelTrainingError(err.Error())
	}

	x := make([][]float64, len(encoded))
	y := make([]float64, len(encoded))
	for i, r := range encoded {
		x[i] = EncodedContext{
			Season:       r.Season,
			DayType:      r.DayType,
			Day:          r.Day,
			MealCategory: r.MealCategory,
			StudentCount: r.StudentCount,
		}.Features(r.PreparedQty)
		y[i] = r.WasteQty
	}

	trainIdx, testIdx := regression.TrainTestSplit(len(x), opts.TestRatio, opts.Forest.Seed)
	trainX, trainY := regression.Subset(x, y, trainIdx)
	testX, testY := regression.Subset(x, y, testIdx)

	started := time.Now()
	forest, err := regression.Fit(ctx, trainX, trainY, opts.Forest)
	if err != nil {
		return nil, errors.NewModelTrainingError(err.Error())
	}

	evaluation, err := regression.Evaluate(forest, testX, testY)
	if err != nil {
		return nil, errors.NewModelTrainingError(err.Error())
	}

	log.Info("model trained", map[string]interface{}{
		"records":    len(encoded),
		"trainRows":  len(trainIdx),
		"testRows":   len(testIdx),
		"trees":      forest.NumTrees(),
		"r2":         evaluation.R2,
		"mae":        evaluation.MAE,
		"rmse":       evaluation.RMSE,
		"durationMs": time.Since(started).Milliseconds(),
	})

	return &Artifact{
		bank:       bank,
		model:      forest,
		records:    encoded,
		evaluation: evaluation,
		trainRows:  len(trainIdx),
		builtAt:    time.Now().UTC(),
	}, nil
}

// NewArtifact assembles an artifact from parts that were built together
// elsewhere. records must be encoded with bank.
func NewArtifact(bank *encoding.Bank, model Model, records []EncodedRecord) (*Artifact, error) {
	if bank == nil || model == nil {
		return nil, fmt.Errorf("artifact needs both an encoder bank and a model")
	}
	return &Artifact{
		bank:      bank,
		model:     model,
		records:   append([]EncodedRecord(nil), records...),
		trainRows: len(records),
		builtAt:   time.Now().UTC(),
	}, nil
}

// FitBank fits one encoder per categorical column of records.
func FitBank(records []dataset.Record) (*encoding.Bank, error) {
	return encoding.NewBank(columns(records))
}

func columns(records []dataset.Record) map[encoding.Field][]string {
	cols := map[encoding.Field][]string{}
	for _, r := range records {
		cols[encoding.Season] = append(cols[encoding.Season], r.Season)
		cols[encoding.DayType] = append(cols[encoding.DayType], r.DayType)
		cols[encoding.Day] = append(cols[encoding.Day], r.Day)
		cols[encoding.MealCategory] = append(cols[encoding.MealCategory], r.MealCategory)
		cols[encoding.DishName] = append(cols[encoding.DishName], r.DishName)
	}
	return cols
}

// EncodeRecords encodes raw records with bank.
func EncodeRecords(bank *encoding.Bank, records []dataset.Record) ([]EncodedRecord, error) {
	out := make([]EncodedRecord, len(records))
	for i, r := range records {
		e := EncodedRecord{
			StudentCount: r.StudentCount,
			PreparedQty:  r.PreparedQty,
			ConsumedQty:  r.ConsumedQty,
			WasteQty:     r.WasteQty,
			CostMin:      r.CostMin,
			CostMax:      r.CostMax,
		}
		for _, f := range []struct {
			field encoding.Field
			label string
			dst   *int
		}{
			{encoding.Season, r.Season, &e.Season},
			{encoding.DayType, r.DayType, &e.DayType},
			{encoding.Day, r.Day, &e.Day},
			{encoding.MealCategory, r.MealCategory, &e.MealCategory},
			{encoding.DishName, r.DishName, &e.DishName},
		} {
			code, err := bank.Encode(f.field, f.label)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i+1, err)
			}
			*f.dst = code
		}
		out[i] = e
	}
	return out, nil
}

func (a *Artifact) Bank() *encoding.Bank { return a.bank }
func (a *Artifact) Model() Model         { return a.model }

// Records exposes the encoded dataset. Callers must not modify it.
func (a *Artifact) Records() []EncodedRecord { return a.records }

func (a *Artifact) Evaluation() regression.Evaluation { return a.evaluation }

// Tag identifies this build. Cached results are keyed by it so a restart
// with a retrained model never serves stale entries.
func (a *Artifact) Tag() string {
	return strconv.FormatInt(a.builtAt.UnixNano(), 36)
}

func (a *Artifact) Info() ModelInfo {
	info := ModelInfo{
		Records:      len(a.records),
		TrainRows:    a.trainRows,
		FeatureOrder: append([]string(nil), FeatureOrder...),
		Evaluation:   a.evaluation,
		BuiltAt:      a.builtAt,
	}
	if rf, ok := a.model.(*regression.RandomForest); ok {
		info.Trees = rf.NumTrees()
	}
	return info
}
