package encoder

import "sort"

// Column names shared by training data and inference.
const (
	ColAnimalType = "Animal_Type"
	ColBreed      = "Breed"
	ColGender     = "Gender"
	ColSymptom1   = "Symptom_1"
	ColSymptom2   = "Symptom_2"
	ColSymptom3   = "Symptom_3"
	ColSymptom4   = "Symptom_4"
	ColDuration   = "Duration"

	ColAge       = "Age"
	ColWeight    = "Weight"
	ColHeartRate = "Heart_Rate"

	ColTemperature        = "Body_Temperature"
	ColTemperatureNumeric = "Body_Temperature_Numeric"

	encodedSuffix = "_encoded"
)

// SymptomColumns are the ordered symptom slot columns.
var SymptomColumns = [4]string{ColSymptom1, ColSymptom2, ColSymptom3, ColSymptom4}

// CategoricalColumns lists every column encoded through the EncoderSet, in
// the order their encoded forms appear in DefaultFeatureColumns.
var CategoricalColumns = []string{
	ColAnimalType, ColBreed, ColGender,
	ColSymptom1, ColSymptom2, ColSymptom3, ColSymptom4,
	ColDuration,
	ColAppetiteLoss, ColVomiting, ColDiarrhea, ColCoughing, ColLaboredBreathing,
	ColLameness, ColSkinLesions, ColNasalDischarge, ColEyeDischarge,
}

// NumericColumns are passed through unencoded.
var NumericColumns = []string{ColAge, ColWeight, ColHeartRate}

// EncodedName returns the feature column name for an encoded categorical column.
func EncodedName(col string) string { return col + encodedSuffix }

// DefaultFeatureColumns returns the feature order used by newly trained
// artifacts: encoded categoricals, numerics, then parsed temperature.
func DefaultFeatureColumns() []string {
	cols := make([]string, 0, len(CategoricalColumns)+len(NumericColumns)+1)
	for _, c := range CategoricalColumns {
		cols = append(cols, EncodedName(c))
	}
	cols = append(cols, NumericColumns...)
	return append(cols, ColTemperatureNumeric)
}

// EncoderSet holds one fitted LabelEncoder per categorical column.
type EncoderSet map[string]*LabelEncoder

// FitEncoderSet fits an encoder for each column over the given records.
// Records missing a column contribute nothing to that column's classes.
func FitEncoderSet(columns []string, records []map[string]string) EncoderSet {
	set := make(EncoderSet, len(columns))
	for _, col := range columns {
		vals := make([]string, 0, len(records))
		for _, r := range records {
			if v, ok := r[col]; ok {
				vals = append(vals, v)
			}
		}
		set[col] = FitLabelEncoder(vals)
	}
	return set
}

// Encoder returns the encoder for col.
func (s EncoderSet) Encoder(col string) (*LabelEncoder, bool) {
	e, ok := s[col]
	return e, ok && e != nil
}

// Columns returns the fitted column names, sorted.
func (s EncoderSet) Columns() []string {
	cols := make([]string, 0, len(s))
	for c := range s {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
