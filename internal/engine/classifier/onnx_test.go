package classifier

import (
	"os"
	"testing"
)

const testModelPath = "../../../models/disease_model.onnx"

func skipIfNoModel(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(testModelPath); os.IsNotExist(err) {
		t.Skip("ONNX model not found in models/")
	}
}

func TestONNXClassifierLoad(t *testing.T) {
	skipIfNoModel(t)

	c, err := NewONNX(testModelPath)
	if err != nil {
		t.Fatalf("failed to load ONNX classifier: %v", err)
	}
	defer c.Close()

	if c.NumClasses() <= 0 {
		t.Errorf("expected positive class count, got %d", c.NumClasses())
	}
	t.Logf("input %s (%d features), output %s (%d classes)", c.inputName, c.numFeat, c.outputName, c.numClasses)
}

func TestONNXClassifierPredict(t *testing.T) {
	skipIfNoModel(t)

	c, err := NewONNX(testModelPath)
	if err != nil {
		t.Fatalf("failed to load ONNX classifier: %v", err)
	}
	defer c.Close()

	probs, err := c.PredictProba(make([]float64, c.numFeat))
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if err := CheckShape(probs, c.NumClasses()); err != nil {
		t.Fatal(err)
	}

	if _, err := c.PredictProba([]float64{1}); err == nil && c.numFeat != 1 {
		t.Error("expected error for wrong feature count")
	}
}
