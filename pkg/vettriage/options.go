package vettriage

import "path/filepath"

const (
	defaultModelDir  = "models"
	artifactFileName = "disease_model.json"
	catalogFileName  = "severity_mapping.json"
)

type options struct {
	modelDir     string
	artifactPath string
	catalogPath  string
	topK         int
}

// Option configures a Predictor.
type Option func(*options)

// WithModelDir sets the directory holding disease_model.json and
// severity_mapping.json. Default: "models".
func WithModelDir(dir string) Option {
	return func(o *options) {
		o.modelDir = dir
	}
}

// WithArtifactPath sets an explicit model artifact path.
func WithArtifactPath(path string) Option {
	return func(o *options) {
		o.artifactPath = path
	}
}

// WithCatalogPath sets an explicit severity catalog path. A missing catalog
// file falls back to the built-in catalog.
func WithCatalogPath(path string) Option {
	return func(o *options) {
		o.catalogPath = path
	}
}

// WithTopK sets how many ranked candidates a prediction returns. Default: 3.
func WithTopK(k int) Option {
	return func(o *options) {
		o.topK = k
	}
}

// resolvePaths applies explicit paths over the model directory layout.
func resolvePaths(o options) (artifactPath, catalogPath string) {
	dir := o.modelDir
	if dir == "" {
		dir = defaultModelDir
	}
	artifactPath, catalogPath = o.artifactPath, o.catalogPath
	if artifactPath == "" {
		artifactPath = filepath.Join(dir, artifactFileName)
	}
	if catalogPath == "" {
		catalogPath = filepath.Join(dir, catalogFileName)
	}
	return artifactPath, catalogPath
}
