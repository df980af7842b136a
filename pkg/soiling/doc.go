// Package soiling scores dirt on solar-panel photographs by comparing an
// image embedding against a reference embedding of a clean panel.
//
// Calibrate turns clean and dirty sample embeddings into a ReferenceProfile;
// Normalize maps an embedding distance onto a 0-100 severity scale (open
// above 100); TileAndScore localizes dirt by scoring overlapping tiles and
// averaging them into a Heatmap; Classify buckets a score.
//
// Pixel I/O uses OpenCV through gocv by default. Building with the purego
// tag (or for js/wasm) swaps in a pure Go backend.
package soiling
