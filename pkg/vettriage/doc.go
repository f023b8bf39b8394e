// Package vettriage predicts likely animal diseases from reported symptoms
// and basic attributes, ranking the top candidates and attaching severity,
// urgency and a recommendation to each.
//
// Quick start:
//
//	p := vettriage.NewLazy(vettriage.WithModelDir("models/"))
//	defer p.Close()
//
//	resp := p.Predict(vettriage.Request{
//	    Symptoms:   []string{"vomiting", "diarrhea", "lethargy"},
//	    AnimalType: "Dog",
//	    Age:        vettriage.Float(0.5),
//	})
//	if resp.Error != "" {
//	    log.Fatal(resp.Error)
//	}
//	fmt.Println(resp.Predictions[0].Disease, resp.Predictions[0].Confidence)
//
// A Predictor is safe for concurrent use. The model is loaded once, either
// up front (New) or by the first caller (NewLazy); concurrent first callers
// share that single load.
package vettriage
