package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-powerpulse/feature"
	"github.com/aouyang1/go-powerpulse/linearmodel"
	"github.com/aouyang1/go-powerpulse/preprocess"
	"github.com/goccy/go-json"
)

// Model is the serializable artifact of a fitted pipeline along with the metadata describing
// how and on what it was trained
type Model struct {
	ID        string    `json:"model_id"`
	CreatedAt time.Time `json:"created_at"`

	TrainStart time.Time     `json:"train_start"`
	TrainEnd   time.Time     `json:"train_end"`
	Step       time.Duration `json:"step"`
	TrainRows  int           `json:"train_rows"`
	TestRows   int           `json:"test_rows"`

	Features     feature.Options          `json:"feature_options"`
	Ridge        linearmodel.RidgeOptions `json:"ridge_options"`
	Preprocessor *preprocess.Preprocessor `json:"preprocessor"`
	Weights      Weights                  `json:"weights"`
	Scores       *Scores                  `json:"scores,omitempty"`
}

// Weights stores the coefficients of the ridge model labelled by design matrix column
type Weights struct {
	Intercept float64         `json:"intercept"`
	Coef      []FeatureWeight `json:"coefficients"`
}

// FeatureWeight is the coefficient of a single design matrix column
type FeatureWeight struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

func newWeights(labels []string, intercept float64, coef []float64) Weights {
	w := Weights{
		Intercept: intercept,
		Coef:      make([]FeatureWeight, len(coef)),
	}
	for i, c := range coef {
		w.Coef[i] = FeatureWeight{Label: labels[i], Value: c}
	}
	return w
}

// Coefficients returns a slice copy of the coefficients ignoring the intercept
func (w Weights) Coefficients() []float64 {
	coef := make([]float64, 0, len(w.Coef))
	for _, fw := range w.Coef {
		coef = append(coef, fw.Value)
	}
	return coef
}

// Validate checks that the artifact can be restored into a pipeline
func (m *Model) Validate() error {
	if m.ID == "" {
		return ErrNoModelID
	}
	if err := m.Preprocessor.Validate(); err != nil {
		return err
	}
	if width := m.Preprocessor.Width(); width != len(m.Weights.Coef) {
		return fmt.Errorf("expected %d weights, but got %d, %w", width, len(m.Weights.Coef), ErrWeightsMismatch)
	}
	return nil
}

// Save writes the artifact to path, replacing any existing file atomically
func (m *Model) Save(path string) error {
	if path == "" {
		return ErrEmptyArtifactPath
	}
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode model, %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create model directory, %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create temporary model file, %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write model, %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to write model, %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadModel reads and validates the artifact at path
func LoadModel(path string) (*Model, error) {
	if path == "" {
		return nil, ErrEmptyArtifactPath
	}
	in, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ModelNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("unable to read model, %w", err)
	}

	var m Model
	if err := json.Unmarshal(in, &m); err != nil {
		return nil, fmt.Errorf("unable to decode model %s, %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s, %w", path, err)
	}
	return &m, nil
}

// TablePrint prints the model metadata, scores and weights in tabular form
func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sModel:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sID: %s\n", prefix, indentExpand(indent, 1), m.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sTraining Window: %s to %s\n", prefix, indentExpand(indent, 1), m.TrainStart, m.TrainEnd); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sStep: %s    Train Rows: %d    Test Rows: %d\n",
		prefix, indentExpand(indent, 1),
		m.Step, m.TrainRows, m.TestRows,
	); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sAlpha: %.3f    Peak Window: %02d-%02d\n",
		prefix, indentExpand(indent, 1),
		m.Ridge.Alpha, m.Features.PeakWindow.StartHour, m.Features.PeakWindow.EndHour,
	); err != nil {
		return err
	}

	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, indentExpand(indent, 0)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sMAE: %.3f    MAPE: %.3f    R2: %.3f\n",
			prefix, indentExpand(indent, 1),
			m.Scores.MAE,
			m.Scores.MAPE,
			m.Scores.R2,
		); err != nil {
			return err
		}
	}

	return m.Weights.tablePrint(w, prefix, indent, 0)
}

func (w Weights) tablePrint(wr io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(wr, "%s%sWeights:\n", prefix, indentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(wr, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sLabel\tValue\t\n", prefix, indentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tbl, "%s%sintercept\t%.3f\t\n", prefix, indentExpand(indent, indentGrowth+1), w.Intercept); err != nil {
		return err
	}
	for _, fw := range w.Coef {
		val := fmt.Sprintf("%.3f", fw.Value)
		if fw.Value == 0 {
			val = "..."
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%s\t\n",
			prefix, indentExpand(indent, indentGrowth+1),
			fw.Label, val); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

func indentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}
